package resources

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowguard/flowguard/config"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerLevels(t *testing.T) {
	levels := map[int]log.Level{
		0: log.ErrorLevel,
		1: log.WarnLevel,
		2: log.InfoLevel,
		3: log.DebugLevel,
	}
	for setting, expected := range levels {
		logger := initLogger(&config.LogStaticCfg{LogLevel: setting}, &bytes.Buffer{})
		assert.Equal(t, expected, logger.Level)
	}
}

func TestInitLoggerWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := initLogger(&config.LogStaticCfg{LogLevel: 2}, &buf)
	logger.WithField("file", "capture.csv").Info("Processed capture")
	logger.Debug("hidden")

	assert.Contains(t, buf.String(), "Processed capture")
	assert.Contains(t, buf.String(), "file=capture.csv")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestAddFileLogger(t *testing.T) {
	logger := initLogger(&config.LogStaticCfg{LogLevel: 3}, &bytes.Buffer{})
	logDir, err := addFileLogger(logger, t.TempDir())
	require.Nil(t, err)

	logger.Warn("drift detected")

	contents, err := os.ReadFile(filepath.Join(logDir, "warn.log"))
	require.Nil(t, err)
	assert.Contains(t, string(contents), "drift detected")
}

func TestInitTestResources(t *testing.T) {
	res := InitTestResources(t)
	assert.NotNil(t, res.Store)
	assert.Equal(t, res.Config.R.ModelDirectory, res.Store.Directory())
}
