// Package inference classifies capture files with a stored model, reports
// the flows that are not benign and keeps a threat log per capture.
package inference

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/flowguard/flowguard/pkg/dataset"
	"github.com/flowguard/flowguard/pkg/labels"
	"github.com/flowguard/flowguard/pkg/metrics"
	"github.com/flowguard/flowguard/pkg/schema"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/util"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
)

// PredictedLabelColumn is appended to the feature columns of a threat log
const PredictedLabelColumn = "Predicted Label"

// threatLogPrefix is prepended to the capture's base name
const threatLogPrefix = "threat_"

type (
	// Classifier maps feature rows to class codes
	Classifier interface {
		Predict(rows [][]float64) ([]int, error)
	}

	// Settings controls how captures are read and where logs go
	Settings struct {
		HeaderOffset int
		LogDirectory string
		BenignLabel  string
		DropColumns  []string
		Metrics      *metrics.Metrics
	}

	// Driver runs the classifier over capture files
	Driver struct {
		schema     []string
		classifier Classifier
		codec      *labels.Codec
		reconciler *schema.Reconciler
		settings   Settings
		out        io.Writer
		log        *log.Logger
	}

	// Outcome describes one processed capture
	Outcome struct {
		Path    string
		LogPath string
		Rows    int
		Dropped int
		Samples []schema.Drop
		Threats map[string]int
	}

	// Failure pairs a capture with the error that stopped it
	Failure struct {
		Path string
		Err  error
	}
)

// New creates a driver for an explicit schema, classifier and codec
func New(features []string, classifier Classifier, codec *labels.Codec, settings Settings, out io.Writer, logger *log.Logger) *Driver {
	if settings.BenignLabel == "" {
		settings.BenignLabel = labels.Benign
	}
	return &Driver{
		schema:     append([]string(nil), features...),
		classifier: classifier,
		codec:      codec,
		reconciler: schema.New(nil, settings.DropColumns),
		settings:   settings,
		out:        out,
		log:        logger,
	}
}

// FromArtifacts creates a driver for a loaded model
func FromArtifacts(artifacts *store.Artifacts, settings Settings, out io.Writer, logger *log.Logger) *Driver {
	return New(artifacts.Schema(), artifacts.Forest(), artifacts.Codec(), settings, out, logger)
}

// ThreatLogPath returns where the threat log of a capture is written. Logs
// are plain CSV even for compressed captures.
func (d *Driver) ThreatLogPath(capture string) string {
	name := strings.TrimSuffix(filepath.Base(capture), ".gz")
	return filepath.Join(d.settings.LogDirectory, threatLogPrefix+name)
}

// Run processes every capture in order. A capture that fails is reported on
// the output and skipped, the failures are returned.
func (d *Driver) Run(paths []string) ([]*Outcome, []Failure) {
	var outcomes []*Outcome
	var failures []Failure
	for _, path := range paths {
		outcome, err := d.Process(path)
		if err != nil {
			fmt.Fprintf(d.out, "[!] Error processing %s: %v\n", path, err)
			d.log.WithFields(log.Fields{
				"path":  path,
				"error": err.Error(),
			}).Error("Capture failed")
			failures = append(failures, Failure{Path: path, Err: err})
			d.count("failed")
			continue
		}
		outcomes = append(outcomes, outcome)
		d.count("ok")
	}
	return outcomes, failures
}

func (d *Driver) count(result string) {
	if d.settings.Metrics != nil {
		d.settings.Metrics.Files.WithLabelValues(result).Inc()
	}
}

// Process classifies one capture, prints its summary and writes its threat log
func (d *Driver) Process(path string) (*Outcome, error) {
	start := time.Now()

	table, err := dataset.ReadFile(path, d.settings.HeaderOffset)
	if err != nil {
		return nil, err
	}

	result, err := d.reconciler.Reconcile(table, d.schema)
	if err != nil {
		return nil, err
	}

	var codes []int
	if len(result.Rows) > 0 {
		codes, err = d.classifier.Predict(result.Rows)
		if err != nil {
			return nil, fmt.Errorf("classification failed: %w", err)
		}
		if len(codes) != len(result.Rows) {
			return nil, fmt.Errorf("classifier returned %d predictions for %d rows", len(codes), len(result.Rows))
		}
	}

	predicted, err := d.codec.DecodeAll(codes)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Path:    path,
		LogPath: d.ThreatLogPath(path),
		Rows:    table.Len(),
		Dropped: result.Dropped,
		Samples: result.Samples,
		Threats: make(map[string]int),
	}

	var threats []int
	for i, label := range predicted {
		if d.settings.Metrics != nil {
			d.settings.Metrics.Flows.WithLabelValues(label).Inc()
		}
		if label == d.settings.BenignLabel {
			continue
		}
		threats = append(threats, i)
		outcome.Threats[label]++
	}
	if d.settings.Metrics != nil {
		d.settings.Metrics.DroppedRows.Add(float64(result.Dropped))
	}

	if err := d.writeThreatLog(outcome.LogPath, result.Rows, predicted, threats); err != nil {
		return nil, err
	}

	d.summarize(outcome)

	d.log.WithFields(log.Fields{
		"path":     path,
		"rows":     outcome.Rows,
		"dropped":  outcome.Dropped,
		"threats":  len(threats),
		"log":      outcome.LogPath,
		"duration": time.Since(start).String(),
	}).Info("Processed capture")
	for _, sample := range result.Samples {
		d.log.WithFields(log.Fields{
			"path":   path,
			"row":    sample.Row,
			"column": sample.Column,
			"value":  sample.Value,
			"reason": sample.Reason,
		}).Debug("Dropped row")
	}
	return outcome, nil
}

// writeThreatLog writes the feature values and predicted label of every
// flagged row, in input order. The file is written even when nothing was
// flagged.
func (d *Driver) writeThreatLog(path string, rows [][]float64, predicted []string, threats []int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create log directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create threat log: %w", err)
	}

	writer := csv.NewWriter(file)
	header := append(append([]string(nil), d.schema...), PredictedLabelColumn)
	writer.Write(header)

	record := make([]string, len(header))
	for _, i := range threats {
		for j, value := range rows[i] {
			record[j] = util.FormatFloat(value)
		}
		record[len(record)-1] = predicted[i]
		writer.Write(record)
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		file.Close()
		return fmt.Errorf("could not write threat log: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("could not write threat log: %w", err)
	}
	return nil
}

// summarize prints the per category counts, largest first
func (d *Driver) summarize(outcome *Outcome) {
	name := filepath.Base(outcome.Path)
	if outcome.Dropped > 0 {
		fmt.Fprintf(d.out, "\t[-] %s: dropped %d of %d row(s) with unparseable features\n",
			name, outcome.Dropped, outcome.Rows)
	}

	if len(outcome.Threats) == 0 {
		fmt.Fprintf(d.out, "[+] %s: No threats in this capture.\n", name)
		return
	}

	fmt.Fprintf(d.out, "[!] Anomaly detected in %s\n", name)
	table := tablewriter.NewWriter(d.out)
	table.SetHeader([]string{"Predicted Label", "Count"})
	for _, category := range SortedCounts(outcome.Threats) {
		table.Append([]string{category.Label, strconv.Itoa(category.Count)})
	}
	table.Render()
	fmt.Fprintf(d.out, "\t[-] Threat log: %s\n", outcome.LogPath)
}

// Count is one category of a summary
type Count struct {
	Label string
	Count int
}

// SortedCounts orders counts by count descending, then label ascending
func SortedCounts(counts map[string]int) []Count {
	sorted := make([]Count, 0, len(counts))
	for label, count := range counts {
		sorted = append(sorted, Count{Label: label, Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Label < sorted[j].Label
	})
	return sorted
}
