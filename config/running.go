package config

import (
	"fmt"
	"path/filepath"

	"github.com/blang/semver"
)

type (
	//RunningCfg holds configuration options that are parsed at run time
	RunningCfg struct {
		Version        semver.Version
		ConfigPath     string
		ModelDirectory string
		LogDirectory   string
	}
)

// initRunningConfig validates the static config and derives the values the
// rest of the system works from
func initRunningConfig(static *StaticCfg, running *RunningCfg) error {
	var err error

	running.Version, err = semver.ParseTolerant(static.Version)
	if err != nil {
		return fmt.Errorf("could not parse version %q: %w", static.Version, err)
	}

	if static.Balancing.TestRatio <= 0 || static.Balancing.TestRatio >= 1 {
		return fmt.Errorf("Balancing.TestRatio must be between 0 and 1, got %v", static.Balancing.TestRatio)
	}
	if static.Balancing.MajorityCap <= 0 {
		return fmt.Errorf("Balancing.MajorityCap must be positive, got %d", static.Balancing.MajorityCap)
	}
	if static.Balancing.Neighbors <= 0 {
		return fmt.Errorf("Balancing.Neighbors must be positive, got %d", static.Balancing.Neighbors)
	}
	if static.Forest.Trees <= 0 {
		return fmt.Errorf("Forest.Trees must be positive, got %d", static.Forest.Trees)
	}
	if static.Predict.HeaderOffset < 0 {
		return fmt.Errorf("Predict.HeaderOffset must not be negative, got %d", static.Predict.HeaderOffset)
	}

	running.ModelDirectory, err = filepath.Abs(static.Model.Directory)
	if err != nil {
		return err
	}
	running.LogDirectory, err = filepath.Abs(static.Predict.LogDirectory)
	return err
}
