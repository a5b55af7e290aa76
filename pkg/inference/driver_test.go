package inference

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowguard/flowguard/pkg/labels"
	"github.com/flowguard/flowguard/pkg/metrics"
	"github.com/flowguard/flowguard/pkg/schema"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = []string{"Flow Duration", "Total Fwd Packets", "Total Backward Packets"}

// firstFeature predicts the class code stored in the first feature
type firstFeature struct{}

func (firstFeature) Predict(rows [][]float64) ([]int, error) {
	codes := make([]int, len(rows))
	for i, row := range rows {
		codes[i] = int(row[0])
	}
	return codes, nil
}

type failingClassifier struct{}

func (failingClassifier) Predict(rows [][]float64) ([]int, error) {
	return nil, errors.New("model exploded")
}

const capture = `capture generated by CICFlowMeter
Flow ID, Flow Duration,Total Fwd Packet,Total Bwd packets,Label
a,0,10,20,x
b,1,11,21,x
c,2,12.5,22,x
d,NaN,13,23,x
e,1,14,24,x
`

const benignCapture = `capture generated by CICFlowMeter
Flow Duration,Total Fwd Packets,Total Backward Packets
0,1,2
0,3,4
`

func writeCapture(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func testDriver(t *testing.T, classifier Classifier, logDir string, out *bytes.Buffer) *Driver {
	codec, err := labels.NewCodec([]string{"BENIGN", "DDoS", "PortScan"})
	require.NoError(t, err)

	logger := log.New()
	logger.Out = ioutil.Discard
	return New(testSchema, classifier, codec, Settings{
		HeaderOffset: 1,
		LogDirectory: logDir,
	}, out, logger)
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	path := writeCapture(t, dir, "monday.csv", capture)
	logDir := filepath.Join(dir, "logs")

	var out bytes.Buffer
	outcome, err := testDriver(t, firstFeature{}, logDir, &out).Process(path)
	require.NoError(t, err)

	assert.Equal(t, 5, outcome.Rows)
	assert.Equal(t, 1, outcome.Dropped)
	require.Len(t, outcome.Samples, 1)
	assert.Equal(t, schema.Drop{Row: 3, Column: "Flow Duration", Value: "NaN", Reason: "not finite"}, outcome.Samples[0])
	assert.Equal(t, map[string]int{"DDoS": 2, "PortScan": 1}, outcome.Threats)
	assert.Equal(t, filepath.Join(logDir, "threat_monday.csv"), outcome.LogPath)

	written, err := ioutil.ReadFile(outcome.LogPath)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Flow Duration,Total Fwd Packets,Total Backward Packets,Predicted Label",
		"1,11,21,DDoS",
		"2,12.5,22,PortScan",
		"1,14,24,DDoS",
		"",
	}, "\n"), string(written))

	summary := out.String()
	assert.Contains(t, summary, "[!] Anomaly detected in monday.csv")
	assert.Contains(t, summary, "dropped 1 of 5 row(s)")
	assert.Less(t, strings.Index(summary, "DDoS"), strings.Index(summary, "PortScan"))
	assert.NotContains(t, summary, "No threats")
}

func TestProcessNoThreats(t *testing.T) {
	dir := t.TempDir()
	path := writeCapture(t, dir, "quiet.csv", benignCapture)

	var out bytes.Buffer
	outcome, err := testDriver(t, firstFeature{}, filepath.Join(dir, "logs"), &out).Process(path)
	require.NoError(t, err)

	assert.Empty(t, outcome.Threats)
	assert.Contains(t, out.String(), "No threats in this capture.")
	assert.NotContains(t, out.String(), "dropped")

	written, err := ioutil.ReadFile(outcome.LogPath)
	require.NoError(t, err)
	assert.Equal(t, "Flow Duration,Total Fwd Packets,Total Backward Packets,Predicted Label\n", string(written))
}

func TestProcessDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := writeCapture(t, dir, "monday.csv", capture)

	var out bytes.Buffer
	first, err := testDriver(t, firstFeature{}, filepath.Join(dir, "a"), &out).Process(path)
	require.NoError(t, err)
	second, err := testDriver(t, firstFeature{}, filepath.Join(dir, "b"), &out).Process(path)
	require.NoError(t, err)

	firstLog, err := ioutil.ReadFile(first.LogPath)
	require.NoError(t, err)
	secondLog, err := ioutil.ReadFile(second.LogPath)
	require.NoError(t, err)
	assert.Equal(t, firstLog, secondLog)
}

func TestProcessFaults(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	var out bytes.Buffer

	missing := writeCapture(t, dir, "missing.csv", "junk\nFlow Duration,Total Fwd Packets\n1,2\n")
	_, err := testDriver(t, firstFeature{}, logDir, &out).Process(missing)
	var schemaErr *schema.MissingFeatureError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"Total Backward Packets"}, schemaErr.Missing)

	path := writeCapture(t, dir, "monday.csv", capture)
	_, err = testDriver(t, failingClassifier{}, logDir, &out).Process(path)
	assert.EqualError(t, err, "classification failed: model exploded")

	outOfRange := writeCapture(t, dir, "range.csv", "junk\nFlow Duration,Total Fwd Packets,Total Backward Packets\n7,1,1\n")
	_, err = testDriver(t, firstFeature{}, logDir, &out).Process(outOfRange)
	var decodeErr *labels.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, 7, decodeErr.Code)

	_, err = os.Stat(filepath.Join(logDir, "threat_missing.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	good := writeCapture(t, dir, "good.csv", capture)
	broken := writeCapture(t, dir, "broken.csv", "junk\nFlow Duration\n1\n")
	absent := filepath.Join(dir, "absent.csv")
	quiet := writeCapture(t, dir, "quiet.csv", benignCapture)

	var out bytes.Buffer
	driver := testDriver(t, firstFeature{}, logDir, &out)
	m := metrics.New()
	driver.settings.Metrics = m

	outcomes, failures := driver.Run([]string{good, broken, absent, quiet})

	require.Len(t, outcomes, 2)
	assert.Equal(t, good, outcomes[0].Path)
	assert.Equal(t, quiet, outcomes[1].Path)

	require.Len(t, failures, 2)
	assert.Equal(t, broken, failures[0].Path)
	assert.Equal(t, absent, failures[1].Path)

	summary := out.String()
	assert.Contains(t, summary, "[!] Error processing "+broken+": missing 2 feature column(s): Total Fwd Packets, Total Backward Packets\n")
	assert.Contains(t, summary, "[!] Error processing "+absent+": ")
	assert.FileExists(t, filepath.Join(logDir, "threat_good.csv"))
	assert.FileExists(t, filepath.Join(logDir, "threat_quiet.csv"))

	textfile := filepath.Join(dir, "flowguard.prom")
	require.NoError(t, m.WriteTextfile(textfile))
	written, err := ioutil.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(written), `flowguard_files_total{result="failed"} 2`)
	assert.Contains(t, string(written), `flowguard_flows_total{label="DDoS"} 2`)
}

func TestThreatLogPath(t *testing.T) {
	driver := testDriver(t, firstFeature{}, "logs", &bytes.Buffer{})
	assert.Equal(t, filepath.Join("logs", "threat_tuesday.csv"), driver.ThreatLogPath("/captures/tuesday.csv"))
	assert.Equal(t, filepath.Join("logs", "threat_tuesday.csv"), driver.ThreatLogPath("tuesday.csv.gz"))
}

func TestSortedCounts(t *testing.T) {
	sorted := SortedCounts(map[string]int{"DoS": 3, "Bot": 3, "DDoS": 9, "PortScan": 1})
	assert.Equal(t, []Count{
		{Label: "DDoS", Count: 9},
		{Label: "Bot", Count: 3},
		{Label: "DoS", Count: 3},
		{Label: "PortScan", Count: 1},
	}, sorted)
}
