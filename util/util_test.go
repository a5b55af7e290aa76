package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileExists(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), ".jeinwei8380243unt4u")
	assert.False(t, Exists(filePath))
	file, err := os.OpenFile(filePath, os.O_RDONLY|os.O_CREATE, 0666)
	assert.Nil(t, err)
	file.Close()
	assert.True(t, Exists(filePath))
	assert.False(t, IsDir(filePath))
	assert.True(t, IsDir(filepath.Dir(filePath)))
}

func TestUniquePath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "flowguard-report")
	assert.Equal(t, base, UniquePath(base))

	assert.Nil(t, os.Mkdir(base, 0755))
	assert.Equal(t, base+"1", UniquePath(base))

	assert.Nil(t, os.Mkdir(base+"1", 0755))
	assert.Equal(t, base+"2", UniquePath(base))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "80", FormatFloat(80))
	assert.Equal(t, "0.25", FormatFloat(0.25))
	assert.Equal(t, "-0.00000035", FormatFloat(-3.5e-07))
	assert.Equal(t, "123456789012", FormatFloat(123456789012))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1m30s", FormatDuration(90*time.Second))
	assert.Equal(t, "1d1h0m0s", FormatDuration(25*time.Hour))
	assert.Equal(t, "1y2d0s", FormatDuration(367*24*time.Hour))
}
