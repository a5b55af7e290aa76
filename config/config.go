package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"

	"github.com/creasty/defaults"
)

// Version is filled at compile time with the git tag of flowguard
var Version = "v0.0.0"

// ExactVersion is filled at compile time with the output of git describe
var ExactVersion = "undefined"

type (
	//Config holds the configuration for the running system
	Config struct {
		R RunningCfg
		S StaticCfg
	}
)

// LoadConfig loads the configuration in order of precedence: the path given on the
// command line, the user's config, then the global config. When no path is given and
// neither default file exists the built in defaults are used.
func LoadConfig(cfgPath string) (*Config, error) {
	config := &Config{}

	// Initialize static config to the default values
	if err := defaults.Set(&config.S); err != nil {
		return nil, err
	}

	explicit := cfgPath != ""
	if !explicit {
		cfgPath = findConfigFile()
	}

	if cfgPath != "" {
		contents, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", cfgPath, err)
		}
		// Deserialize the yaml file contents into the static config
		if err := parseStaticConfig(contents, &config.S); err != nil {
			return nil, fmt.Errorf("could not parse config %s: %w", cfgPath, err)
		}
	} else {
		finalizeStaticConfig(&config.S)
	}

	config.R.ConfigPath = cfgPath

	// Use the static config to initialize the running config
	if err := initRunningConfig(&config.S, &config.R); err != nil {
		return nil, err
	}

	return config, nil
}

// findConfigFile returns the first default config location that exists
func findConfigFile() string {
	var candidates []string
	if current, err := user.Current(); err == nil {
		candidates = append(candidates, filepath.Join(current.HomeDir, ".flowguard", "config.yaml"))
	}
	candidates = append(candidates, "/etc/flowguard/config.yaml")

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// expandConfig expands environment variables in config strings
func expandConfig(reflected reflect.Value) {
	for i := 0; i < reflected.NumField(); i++ {
		f := reflected.Field(i)
		// process sub configs
		if f.Kind() == reflect.Struct {
			expandConfig(f)
		} else if f.Kind() == reflect.String {
			f.SetString(os.ExpandEnv(f.String()))
		} else if f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.String {
			strs := f.Interface().([]string)
			for i, str := range strs {
				strs[i] = os.ExpandEnv(str)
			}
			f.Set(reflect.ValueOf(strs))
		}
	}
}
