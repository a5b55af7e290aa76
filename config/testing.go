package config

import (
	"github.com/creasty/defaults"
)

const testConfig = `
LogConfig:
    LogLevel: 3
    LogPath: null
    LogToFile: false
Dataset:
    LabelColumn: Label
Labels:
    BenignLabel: BENIGN
    AllowUnmapped: false
Balancing:
    MajorityCap: 50
    TestRatio: 0.2
    Neighbors: 2
    Seed: 42
Forest:
    Trees: 5
    MinSamplesLeaf: 1
    Workers: 1
Predict:
    HeaderOffset: 1
`

// LoadTestingConfig loads the hard coded testing config with the artifacts and
// threat logs rooted at the given directory
func LoadTestingConfig(dir string) (*Config, error) {
	config := &Config{}

	// Initialize static config to the default values
	if err := defaults.Set(&config.S); err != nil {
		return nil, err
	}

	// Deserialize the yaml file contents into the static config
	if err := parseStaticConfig([]byte(testConfig), &config.S); err != nil {
		return nil, err
	}

	config.S.Version = "v0.0.0+testing"
	config.S.ExactVersion = "v0.0.0+testing"
	config.S.Dataset.TrainingDirectory = dir + "/data-sets"
	config.S.Model.Directory = dir
	config.S.Predict.LogDirectory = dir + "/logs"

	// Use the static config to initialize the running config
	if err := initRunningConfig(&config.S, &config.R); err != nil {
		return nil, err
	}

	return config, nil
}
