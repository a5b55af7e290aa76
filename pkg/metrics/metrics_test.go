package metrics

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Files.WithLabelValues("ok").Inc()
	m.Files.WithLabelValues("failed").Add(2)
	m.Flows.WithLabelValues("DDoS").Add(5)
	m.DroppedRows.Add(3)
	m.Finish("predict", time.Now().Add(-time.Second))

	path := filepath.Join(t.TempDir(), "flowguard.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `flowguard_files_total{result="ok"} 1`)
	assert.Contains(t, text, `flowguard_files_total{result="failed"} 2`)
	assert.Contains(t, text, `flowguard_flows_total{label="DDoS"} 5`)
	assert.Contains(t, text, "flowguard_dropped_rows_total 3")
	assert.Contains(t, text, `flowguard_run_duration_seconds{command="predict"}`)
}

func TestWriteTextfileDisabled(t *testing.T) {
	assert.NoError(t, New().WriteTextfile(""))
}

func TestRegistriesAreIndependent(t *testing.T) {
	first := New()
	second := New()
	first.Accuracy.Set(0.5)

	families, err := second.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == "flowguard_model_accuracy" {
			assert.Equal(t, 0.0, family.GetMetric()[0].GetGauge().GetValue())
		}
	}
}
