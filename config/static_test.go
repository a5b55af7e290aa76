package config

import (
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
)

const staticConfigParserTestConfig = `
LogConfig:
    LogLevel: 3
    LogPath: /var/lib/flowguard/logs
    LogToFile: true
Dataset:
    TrainingDirectory: /data/cicids2017
    LabelColumn: Label
    DropColumns: [Flow ID, Timestamp]
Labels:
    BenignLabel: BENIGN
    AllowUnmapped: true
Balancing:
    MajorityCap: 1000
    TestRatio: 0.25
    Neighbors: 3
    Seed: 7
Forest:
    Trees: 10
    MaxDepth: 12
    MinSamplesLeaf: 2
    MaxFeatures: 9
    Workers: 4
Model:
    Directory: /srv/flowguard/model
Predict:
    HeaderOffset: 0
    LogDirectory: /srv/flowguard/threats
Metrics:
    TextfilePath: /var/lib/node_exporter/flowguard.prom
`

var testConfigFullExp = StaticCfg{
	Log: LogStaticCfg{
		LogLevel:  3,
		LogPath:   "/var/lib/flowguard/logs",
		LogToFile: true,
	},
	Dataset: DatasetStaticCfg{
		TrainingDirectory: "/data/cicids2017",
		LabelColumn:       "Label",
		DropColumns:       []string{"Flow ID", "Timestamp"},
	},
	Labels: LabelsStaticCfg{
		BenignLabel:   "BENIGN",
		AllowUnmapped: true,
	},
	Balancing: BalanceStaticCfg{
		MajorityCap: 1000,
		TestRatio:   0.25,
		Neighbors:   3,
		Seed:        7,
	},
	Forest: ForestStaticCfg{
		Trees:          10,
		MaxDepth:       12,
		MinSamplesLeaf: 2,
		MaxFeatures:    9,
		Workers:        4,
	},
	Model: ModelStaticCfg{
		Directory: "/srv/flowguard/model",
	},
	Predict: PredictStaticCfg{
		HeaderOffset: 0,
		LogDirectory: "/srv/flowguard/threats",
	},
	Metrics: MetricsStaticCfg{
		TextfilePath: "/var/lib/node_exporter/flowguard.prom",
	},
}

// TestParseStaticConfig ensures that a yaml config
// string is correctly converted into a StaticCfg struct.
func TestParseStaticConfig(t *testing.T) {
	config := &StaticCfg{}
	err := parseStaticConfig([]byte(staticConfigParserTestConfig), config)

	// We are not testing the version setting ensure they are equal
	testConfigFullExp.Version = config.Version
	testConfigFullExp.ExactVersion = config.ExactVersion

	assert.Nil(t, err)
	assert.Equal(t, testConfigFullExp, *config)
}

// TestDefaultsSurvivePartialConfig ensures that sections missing from a config
// file keep their default values.
func TestDefaultsSurvivePartialConfig(t *testing.T) {
	config := &StaticCfg{}
	assert.Nil(t, defaults.Set(config))

	err := parseStaticConfig([]byte("Forest:\n    Trees: 3\n"), config)
	assert.Nil(t, err)

	assert.Equal(t, 3, config.Forest.Trees)
	assert.Equal(t, 1, config.Forest.MinSamplesLeaf)
	assert.Equal(t, 200000, config.Balancing.MajorityCap)
	assert.Equal(t, 0.2, config.Balancing.TestRatio)
	assert.Equal(t, 5, config.Balancing.Neighbors)
	assert.Equal(t, int64(42), config.Balancing.Seed)
	assert.Equal(t, "Label", config.Dataset.LabelColumn)
	assert.Equal(t, "BENIGN", config.Labels.BenignLabel)
	assert.Equal(t, 1, config.Predict.HeaderOffset)
	assert.Equal(t, "logs", config.Predict.LogDirectory)
	assert.False(t, config.Labels.AllowUnmapped)
}

// TestFilePathCleaning ensures that paths specified
// in a config file are cleaned up correctly.
func TestFilePathCleaning(t *testing.T) {
	testConfig := `
LogConfig:
    LogPath: /var/lib/flowguard/incorrect/./../logs/
Model:
    Directory: ./models/../models/
`
	config := &StaticCfg{}
	err := parseStaticConfig([]byte(testConfig), config)

	assert.Nil(t, err)
	assert.Equal(t, "/var/lib/flowguard/logs", config.Log.LogPath)
	assert.Equal(t, "models", config.Model.Directory)
}
