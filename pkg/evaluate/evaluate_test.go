package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	classes := []string{"BENIGN", "DDoS", "PortScan"}
	actual := []int{0, 0, 0, 0, 1, 1, 1, 2, 2, 2}
	predicted := []int{0, 0, 0, 1, 1, 1, 0, 2, 2, 2}

	report, err := Evaluate(actual, predicted, classes)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, report.Accuracy, 1e-9)
	assert.Equal(t, [][]int{
		{3, 1, 0},
		{1, 2, 0},
		{0, 0, 3},
	}, report.Confusion)

	benign := report.Classes[0]
	assert.Equal(t, "BENIGN", benign.Label)
	assert.InDelta(t, 0.75, benign.Precision, 1e-9)
	assert.InDelta(t, 0.75, benign.Recall, 1e-9)
	assert.InDelta(t, 0.75, benign.F1, 1e-9)
	assert.Equal(t, 4, benign.Support)

	ddos := report.Classes[1]
	assert.InDelta(t, 2.0/3.0, ddos.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, ddos.Recall, 1e-9)

	portscan := report.Classes[2]
	assert.Equal(t, 1.0, portscan.Precision)
	assert.Equal(t, 1.0, portscan.F1)

	assert.InDelta(t, (0.75+2.0/3.0+1)/3, report.MacroAvg.Precision, 1e-9)
	assert.InDelta(t, (0.75*4+2.0/3.0*3+3)/10, report.WeightedAvg.Recall, 1e-9)
	assert.Equal(t, 10, report.WeightedAvg.Support)
}

func TestEvaluateUnpredictedClass(t *testing.T) {
	report, err := Evaluate([]int{0, 1}, []int{0, 0}, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.Classes[1].Precision)
	assert.Equal(t, 0.0, report.Classes[1].Recall)
	assert.Equal(t, 0.0, report.Classes[1].F1)
	assert.InDelta(t, 0.5, report.Classes[0].Precision, 1e-9)
}

func TestEvaluateErrors(t *testing.T) {
	_, err := Evaluate([]int{0}, []int{0, 1}, []string{"a", "b"})
	assert.Error(t, err)

	_, err = Evaluate(nil, nil, []string{"a"})
	assert.Error(t, err)

	_, err = Evaluate([]int{0, 2}, []int{0, 0}, []string{"a", "b"})
	assert.Error(t, err)
}

func TestRows(t *testing.T) {
	report, err := Evaluate([]int{0, 0, 1, 1}, []int{0, 0, 1, 0}, []string{"BENIGN", "DDoS"})
	require.NoError(t, err)

	rows := report.Rows()
	require.Len(t, rows, 5)
	assert.Len(t, rows[0], len(Header()))
	assert.Equal(t, []string{"BENIGN", "0.67", "1.00", "0.80", "2"}, rows[0])
	assert.Equal(t, []string{"DDoS", "1.00", "0.50", "0.67", "2"}, rows[1])
	assert.Equal(t, []string{"accuracy", "", "", "0.75", "4"}, rows[2])
	assert.Equal(t, "macro avg", rows[3][0])
	assert.Equal(t, "weighted avg", rows[4][0])

	assert.Equal(t, []string{"Actual \\ Predicted", "BENIGN", "DDoS"}, report.ConfusionHeader())
	assert.Equal(t, [][]string{
		{"BENIGN", "2", "0"},
		{"DDoS", "1", "1"},
	}, report.ConfusionRows())
}
