package resources

import (
	"fmt"
	"os"

	"github.com/flowguard/flowguard/config"
	"github.com/flowguard/flowguard/pkg/store"
	log "github.com/sirupsen/logrus"
)

type (
	// Resources provides a data structure for passing system Resources
	Resources struct {
		Config *config.Config
		Log    *log.Logger
		Store  *store.Store
	}
)

// InitResources grabs the configuration file and intitializes the configuration data
// returning a *Resources object which has all of the necessary configuration information
func InitResources(userConfig string) *Resources {
	res, err := NewResources(userConfig)
	if err != nil {
		fmt.Fprintf(os.Stdout, "Failed to config: %s\n", err.Error())
		os.Exit(-1)
	}
	return res
}

// NewResources is InitResources without the exit on failure
func NewResources(userConfig string) (*Resources, error) {
	conf, err := config.LoadConfig(userConfig)
	if err != nil {
		return nil, err
	}
	return bundle(conf)
}

// bundle wires the logger and the artifact store to a loaded config
func bundle(conf *config.Config) (*Resources, error) {
	// Fire up the logging system
	logger := initLogger(&conf.S.Log, os.Stderr)

	if conf.S.Log.LogToFile {
		logDir, err := addFileLogger(logger, conf.S.Log.LogPath)
		if err != nil {
			return nil, fmt.Errorf("could not create log directory under %s: %w", conf.S.Log.LogPath, err)
		}
		logger.WithField("directory", logDir).Debug("Logging to files")
	}

	// Allows code to read and write the trained artifacts
	artifactStore := store.New(conf.R.ModelDirectory, logger)

	//bundle up the system resources
	r := &Resources{
		Config: conf,
		Log:    logger,
		Store:  artifactStore,
	}
	return r, nil
}
