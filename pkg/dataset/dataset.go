// Package dataset reads flow record CSV files into raw string tables
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flowguard/flowguard/util"
	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"
)

const utf8BOM = "\ufeff"

// ErrNoHeader is returned when a file ends before its header row
var ErrNoHeader = errors.New("no header row found")

type (
	// Table holds the raw, untyped contents of a CSV file
	Table struct {
		Source string
		Header []string
		Rows   [][]string
	}
)

// Len returns the number of data rows in the table
func (t *Table) Len() int {
	return len(t.Rows)
}

// ReadFile reads a .csv or .csv.gz file, discarding the first skip lines before
// the header row
func ReadFile(path string, skip int) (*Table, error) {
	fileHandle, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fileHandle.Close()

	var reader io.Reader = fileHandle
	if strings.HasSuffix(path, ".gz") {
		gzipReader, err := gzip.NewReader(fileHandle)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return Read(reader, path, skip)
}

// Read parses CSV data from r. Rows are allowed to be ragged, the schema
// reconciler treats missing cells as unparseable.
func Read(r io.Reader, source string, skip int) (*Table, error) {
	buffered := bufio.NewReaderSize(r, 1024*1024)

	for i := 0; i < skip; i++ {
		_, err := buffered.ReadString('\n')
		if err == io.EOF {
			return nil, fmt.Errorf("%s: %w", source, ErrNoHeader)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
	}

	csvReader := csv.NewReader(buffered)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", source, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	table := &Table{Source: source, Header: header}
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// GatherFiles expands the given paths into the list of CSV files to read.
// Directories contribute every .csv and .csv.gz file they directly contain.
// The result is sorted so training is reproducible.
func GatherFiles(paths []string, logger *log.Logger) ([]string, error) {
	var toReturn []string

	for _, path := range paths {
		if util.IsDir(path) {
			found, err := gatherDir(path)
			if err != nil {
				return nil, err
			}
			toReturn = append(toReturn, found...)
		} else if isCSV(path) {
			toReturn = append(toReturn, path)
		} else {
			logger.WithFields(log.Fields{
				"path": path,
			}).Warn("Ignoring non .csv or .csv.gz file")
		}
	}

	if len(toReturn) == 0 {
		return nil, fmt.Errorf("no .csv files found in %s", strings.Join(paths, ", "))
	}
	sort.Strings(toReturn)
	return toReturn, nil
}

// gatherDir reads the directory looking for csv files
func gatherDir(cpath string) ([]string, error) {
	var toReturn []string
	entries, err := os.ReadDir(cpath)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() && isCSV(entry.Name()) {
			toReturn = append(toReturn, filepath.Join(cpath, entry.Name()))
		}
	}
	return toReturn, nil
}

func isCSV(path string) bool {
	return strings.HasSuffix(path, ".csv") || strings.HasSuffix(path, ".csv.gz")
}

// TotalSize sums the on disk size of the given files
func TotalSize(paths []string) (int64, error) {
	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
