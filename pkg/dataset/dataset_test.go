package dataset

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	logger := log.New()
	logger.Out = ioutil.Discard
	return logger
}

func TestReadSkipsLeadingLines(t *testing.T) {
	input := "capture produced by cicflowmeter\n Flow Duration, Total Fwd Packet,Label\n10,2,BENIGN\n20,3,DDoS\n"
	table, err := Read(strings.NewReader(input), "capture.csv", 1)
	require.Nil(t, err)

	assert.Equal(t, []string{" Flow Duration", " Total Fwd Packet", "Label"}, table.Header)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"20", "3", "DDoS"}, table.Rows[1])
	assert.Equal(t, "capture.csv", table.Source)
}

func TestReadAllowsRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5\n6,7,8,9\n"
	table, err := Read(strings.NewReader(input), "ragged.csv", 0)
	require.Nil(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"4", "5"}, table.Rows[1])
}

func TestReadStripsBOM(t *testing.T) {
	input := "\ufeffFlow Duration,Label\n1,BENIGN\n"
	table, err := Read(strings.NewReader(input), "bom.csv", 0)
	require.Nil(t, err)
	assert.Equal(t, "Flow Duration", table.Header[0])
}

func TestReadWithoutHeader(t *testing.T) {
	_, err := Read(strings.NewReader("only one line\n"), "short.csv", 1)
	assert.True(t, errors.Is(err, ErrNoHeader))

	_, err = Read(strings.NewReader(""), "empty.csv", 0)
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestReadFileGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monday.csv.gz")

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	_, err := writer.Write([]byte("Flow Duration,Label\n5,PortScan\n"))
	require.Nil(t, err)
	require.Nil(t, writer.Close())
	require.Nil(t, os.WriteFile(path, buf.Bytes(), 0644))

	table, err := ReadFile(path, 0)
	require.Nil(t, err)
	assert.Equal(t, [][]string{{"5", "PortScan"}}, table.Rows)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), 1)
	assert.True(t, os.IsNotExist(errors.Unwrap(err)) || os.IsNotExist(err))
}

func TestGatherFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.csv", "c.csv.gz", "notes.txt"} {
		require.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0644))
	}
	require.Nil(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0755))

	files, err := GatherFiles([]string{dir}, quietLogger())
	require.Nil(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.csv"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "c.csv.gz"),
	}, files)

	size, err := TotalSize(files)
	require.Nil(t, err)
	assert.Equal(t, int64(6), size)
}

func TestGatherFilesEmpty(t *testing.T) {
	_, err := GatherFiles([]string{t.TempDir()}, quietLogger())
	assert.NotNil(t, err)
}
