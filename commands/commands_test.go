package commands

import (
	"bytes"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flowguard/flowguard/pkg/evaluate"
	"github.com/flowguard/flowguard/pkg/forest"
	"github.com/flowguard/flowguard/pkg/labels"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, command := range Commands() {
		names = append(names, command.Name)
	}
	for _, name := range []string{"train", "predict", "show-schema", "show-report", "test-config", "version"} {
		assert.Contains(t, names, name)
	}
}

func TestApplyModelDir(t *testing.T) {
	res := resources.InitTestResources(t)
	dir := t.TempDir()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("model-dir", "", "")
	require.NoError(t, set.Parse([]string{"--model-dir", dir}))

	require.NoError(t, applyModelDir(cli.NewContext(nil, set, nil), res))
	assert.Equal(t, dir, res.Store.Directory())
	assert.Equal(t, dir, res.Config.R.ModelDirectory)
}

func TestApplyModelDirUnset(t *testing.T) {
	res := resources.InitTestResources(t)
	before := res.Store.Directory()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("model-dir", "", "")
	require.NoError(t, set.Parse(nil))

	require.NoError(t, applyModelDir(cli.NewContext(nil, set, nil), res))
	assert.Equal(t, before, res.Store.Directory())
}

func testArtifacts(t *testing.T) *store.Artifacts {
	model := forest.New(forest.WithTrees(1))
	require.NoError(t, model.Fit([][]float64{{1, 1}, {9, 9}}, []int{0, 1}))
	codec := labels.FitCodec([]string{"DDoS", "BENIGN"})
	artifacts, err := store.NewArtifacts([]string{"Flow Duration", "Total Fwd Packets"}, model, codec)
	require.NoError(t, err)
	return artifacts
}

func TestShowSchemaCsv(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, showSchemaCsv(&out, testArtifacts(t)))
	assert.Equal(t, strings.Join([]string{
		"kind,index,name",
		"feature,0,Flow Duration",
		"feature,1,Total Fwd Packets",
		"label,0,BENIGN",
		"label,1,DDoS",
		"",
	}, "\n"), out.String())
}

func TestShowSchemaReport(t *testing.T) {
	var out bytes.Buffer
	artifacts := testArtifacts(t)
	showSchemaReport(&out, artifacts)
	assert.Contains(t, out.String(), artifacts.Header().RunID.String())
	assert.Contains(t, out.String(), "Total Fwd Packets")
	assert.Contains(t, out.String(), "DDoS")
}

func TestShowEvaluationCsv(t *testing.T) {
	report, err := evaluate.Evaluate([]int{0, 1}, []int{0, 1}, []string{"BENIGN", "DDoS"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, showEvaluationCsv(&out, report))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Class,Precision,Recall,F1,Support", lines[0])
	assert.Equal(t, "BENIGN,1.00,1.00,1.00,1", lines[1])
	assert.Equal(t, "accuracy,,,1.00,2", lines[3])
}

func TestShowEvaluationReport(t *testing.T) {
	report, err := evaluate.Evaluate([]int{0, 1}, []int{0, 0}, []string{"BENIGN", "DDoS"})
	require.NoError(t, err)

	var out bytes.Buffer
	showEvaluationReport(&out, report)
	assert.Contains(t, out.String(), "weighted avg")
	assert.Contains(t, out.String(), "Actual \\ Predicted")
}

func TestSavedArtifactsRoundTripThroughStore(t *testing.T) {
	res := resources.InitTestResources(t)
	artifacts := testArtifacts(t)
	require.NoError(t, res.Store.Save(artifacts, nil))

	loaded, err := res.Store.Load()
	require.NoError(t, err)

	var saved, reloaded bytes.Buffer
	require.NoError(t, showSchemaCsv(&saved, artifacts))
	require.NoError(t, showSchemaCsv(&reloaded, loaded))
	assert.Equal(t, saved.String(), reloaded.String())
	assert.Equal(t, filepath.Clean(res.Config.R.ModelDirectory), res.Store.Directory())
}
