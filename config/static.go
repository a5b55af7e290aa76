package config

import (
	"path/filepath"
	"reflect"

	yaml "gopkg.in/yaml.v2"
)

type (
	//StaticCfg is the container for other static config sections
	StaticCfg struct {
		Log          LogStaticCfg     `yaml:"LogConfig"`
		Dataset      DatasetStaticCfg `yaml:"Dataset"`
		Labels       LabelsStaticCfg  `yaml:"Labels"`
		Balancing    BalanceStaticCfg `yaml:"Balancing"`
		Forest       ForestStaticCfg  `yaml:"Forest"`
		Model        ModelStaticCfg   `yaml:"Model"`
		Predict      PredictStaticCfg `yaml:"Predict"`
		Metrics      MetricsStaticCfg `yaml:"Metrics"`
		Version      string           `yaml:"-"`
		ExactVersion string           `yaml:"-"`
	}

	//LogStaticCfg contains the configuration for logging
	LogStaticCfg struct {
		LogLevel  int    `yaml:"LogLevel" default:"2"`
		LogPath   string `yaml:"LogPath" default:"/var/lib/flowguard/logs"`
		LogToFile bool   `yaml:"LogToFile"`
	}

	//DatasetStaticCfg describes where training data lives and how it is laid out
	DatasetStaticCfg struct {
		TrainingDirectory string `yaml:"TrainingDirectory" default:"./data-sets"`
		LabelColumn       string `yaml:"LabelColumn" default:"Label"`
		// DropColumns replaces the built in list of identifying columns when set
		DropColumns []string `yaml:"DropColumns"`
	}

	//LabelsStaticCfg controls label normalization
	LabelsStaticCfg struct {
		BenignLabel   string `yaml:"BenignLabel" default:"BENIGN"`
		AllowUnmapped bool   `yaml:"AllowUnmapped"`
	}

	//BalanceStaticCfg controls downsampling, splitting and oversampling
	BalanceStaticCfg struct {
		MajorityCap int     `yaml:"MajorityCap" default:"200000"`
		TestRatio   float64 `yaml:"TestRatio" default:"0.2"`
		Neighbors   int     `yaml:"Neighbors" default:"5"`
		Seed        int64   `yaml:"Seed" default:"42"`
	}

	//ForestStaticCfg controls the random forest trainer
	ForestStaticCfg struct {
		Trees          int `yaml:"Trees" default:"100"`
		MaxDepth       int `yaml:"MaxDepth"`
		MinSamplesLeaf int `yaml:"MinSamplesLeaf" default:"1"`
		MaxFeatures    int `yaml:"MaxFeatures"`
		Workers        int `yaml:"Workers"`
	}

	//ModelStaticCfg contains the location of the persisted artifacts
	ModelStaticCfg struct {
		Directory string `yaml:"Directory" default:"."`
	}

	//PredictStaticCfg controls the inference driver
	PredictStaticCfg struct {
		HeaderOffset int    `yaml:"HeaderOffset" default:"1"`
		LogDirectory string `yaml:"LogDirectory" default:"logs"`
	}

	//MetricsStaticCfg controls the prometheus textfile export
	MetricsStaticCfg struct {
		TextfilePath string `yaml:"TextfilePath"`
	}
)

// parseStaticConfig deserializes a yaml document into an existing StaticCfg,
// fields missing from the document keep their current values
func parseStaticConfig(cfgFile []byte, config *StaticCfg) error {
	err := yaml.Unmarshal(cfgFile, config)
	if err != nil {
		return err
	}

	finalizeStaticConfig(config)
	return nil
}

// finalizeStaticConfig expands environment variables, cleans up paths and stamps
// the build version onto the config
func finalizeStaticConfig(config *StaticCfg) {
	// expand env variables, config is a pointer
	// so we have to call elem on the reflect value
	expandConfig(reflect.ValueOf(config).Elem())

	config.Log.LogPath = cleanPath(config.Log.LogPath)
	config.Dataset.TrainingDirectory = cleanPath(config.Dataset.TrainingDirectory)
	config.Model.Directory = cleanPath(config.Model.Directory)
	config.Predict.LogDirectory = cleanPath(config.Predict.LogDirectory)
	config.Metrics.TextfilePath = cleanPath(config.Metrics.TextfilePath)

	// grab the version constants set by the build process
	config.Version = Version
	config.ExactVersion = ExactVersion
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}
