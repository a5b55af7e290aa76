// Package training runs the offline half of flowguard: labeled flow datasets
// go in, a random forest, its label codec and an evaluation come out.
package training

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/flowguard/flowguard/config"
	"github.com/flowguard/flowguard/pkg/balance"
	"github.com/flowguard/flowguard/pkg/dataset"
	"github.com/flowguard/flowguard/pkg/evaluate"
	"github.com/flowguard/flowguard/pkg/forest"
	"github.com/flowguard/flowguard/pkg/labels"
	"github.com/flowguard/flowguard/pkg/metrics"
	"github.com/flowguard/flowguard/pkg/schema"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/resources"
	"github.com/pbnjay/memory"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

// importanceLimit caps how many features the evaluation ranks
const importanceLimit = 20

type (
	// Pipeline trains and stores a classifier
	Pipeline struct {
		log        *log.Logger
		config     *config.Config
		store      *store.Store
		reconciler *schema.Reconciler
		normalizer *labels.Normalizer
		metrics    *metrics.Metrics
		out        io.Writer
		progress   bool
	}

	// Option configures a Pipeline
	Option func(*Pipeline)

	// Summary describes a finished training run
	Summary struct {
		Files     []string
		Artifacts *store.Artifacts
		Report    *evaluate.Report
	}

	// corpus is the cleaned training data before balancing
	corpus struct {
		schema     []string
		features   [][]float64
		labels     []string
		dropped    int
		duplicates int
	}
)

// WithMetrics records run metrics into m
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithProgress toggles the progress bars
func WithProgress(show bool) Option {
	return func(p *Pipeline) { p.progress = show }
}

// NewPipeline creates a training pipeline writing operator output to out
func NewPipeline(res *resources.Resources, out io.Writer, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:        res.Log,
		config:     res.Config,
		store:      res.Store,
		reconciler: schema.New(nil, res.Config.S.Dataset.DropColumns),
		normalizer: labels.NewNormalizer(res.Config.S.Labels.AllowUnmapped),
		out:        out,
		progress:   true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run trains on every CSV file found under paths. Nothing is written to the
// model directory unless every stage succeeds.
func (p *Pipeline) Run(paths []string) (*Summary, error) {
	start := time.Now()
	balancing := p.config.S.Balancing

	files, err := dataset.GatherFiles(paths, p.log)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(p.out, "\t[-] Found %d dataset(s)\n", len(files))
	p.checkMemory(files)

	data, err := p.load(files)
	if err != nil {
		return nil, err
	}
	p.dedupe(data)
	fmt.Fprintf(p.out, "\t[-] Rows: %d kept, %d dropped as unparseable, %d duplicate(s) removed\n",
		len(data.features), data.dropped, data.duplicates)

	normalized, err := p.normalizer.Normalize(data.labels)
	if err != nil {
		return nil, err
	}

	order := balance.Downsample(normalized, p.config.S.Labels.BenignLabel, balancing.MajorityCap, balancing.Seed)
	features := make([][]float64, len(order))
	selected := make([]string, len(order))
	for i, row := range order {
		features[i] = data.features[row]
		selected[i] = normalized[row]
	}
	fmt.Fprintf(p.out, "\t[-] Sampled at most %d %s row(s), %d row(s) remain\n",
		balancing.MajorityCap, p.config.S.Labels.BenignLabel, len(order))

	codec := labels.FitCodec(selected)
	codes, err := codec.EncodeAll(selected)
	if err != nil {
		return nil, err
	}

	trainRows, testRows, err := balance.StratifiedSplit(codes, balancing.TestRatio, balancing.Seed)
	if err != nil {
		return nil, nameClass(err, codec)
	}
	trainX, trainY := subset(features, codes, trainRows)
	testX, testY := subset(features, codes, testRows)

	trainX, trainY, err = balance.Oversample(trainX, trainY, balancing.Neighbors, balancing.Seed)
	if err != nil {
		return nil, nameClass(err, codec)
	}
	fmt.Fprintf(p.out, "\t[-] Training on %d row(s) after oversampling, testing on %d\n", len(trainX), len(testX))

	model, err := p.fit(trainX, trainY)
	if err != nil {
		return nil, err
	}

	predicted, err := model.Predict(testX)
	if err != nil {
		return nil, err
	}
	report, err := evaluate.Evaluate(testY, predicted, codec.Classes())
	if err != nil {
		return nil, err
	}
	report.TrainCounts = countLabels(trainY, codec)
	report.TestCounts = countLabels(testY, codec)
	report.Dropped = data.dropped
	report.Duplicates = data.duplicates
	report.Features = len(data.schema)
	report.Importance = rankFeatures(data.schema, model.Importances)
	report.Duration = time.Since(start)

	artifacts, err := store.NewArtifacts(data.schema, model, codec)
	if err != nil {
		return nil, err
	}
	if err := p.store.Save(artifacts, report); err != nil {
		return nil, err
	}

	p.record(report)
	p.log.WithFields(log.Fields{
		"files":    len(files),
		"features": len(data.schema),
		"classes":  codec.Len(),
		"accuracy": report.Accuracy,
		"run_id":   artifacts.Header().RunID,
		"duration": report.Duration.String(),
	}).Info("Training finished")

	return &Summary{Files: files, Artifacts: artifacts, Report: report}, nil
}

// checkMemory warns when the raw datasets alone exceed the system memory
func (p *Pipeline) checkMemory(files []string) {
	size, err := dataset.TotalSize(files)
	if err != nil {
		return
	}
	total := memory.TotalMemory()
	if total == 0 || uint64(size) <= total {
		return
	}
	p.log.WithFields(log.Fields{
		"dataset_bytes": size,
		"memory_bytes":  total,
	}).Warn("Training data is larger than system memory")
	fmt.Fprintf(p.out, "\t[!] Training data (%d bytes) is larger than system memory (%d bytes)\n", size, total)
}

// load reads every file and reconciles it to the schema of the first one
func (p *Pipeline) load(files []string) (*corpus, error) {
	labelColumn := p.config.S.Dataset.LabelColumn
	bar := p.startProgress("Reading Datasets:", len(files))
	defer bar.done()

	data := &corpus{}
	for _, path := range files {
		table, err := dataset.ReadFile(path, 0)
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", path, err)
		}

		labelIndex := p.reconciler.Column(table.Header, labelColumn)
		if labelIndex < 0 {
			return nil, fmt.Errorf("%s has no %q column", path, labelColumn)
		}
		if data.schema == nil {
			data.schema = p.reconciler.DeriveSchema(table.Header, labelColumn)
			if len(data.schema) == 0 {
				return nil, fmt.Errorf("%s has no feature columns", path)
			}
		}

		result, err := p.reconciler.Reconcile(table, data.schema)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		dropped := result.Dropped
		for i, source := range result.Kept {
			row := table.Rows[source]
			if labelIndex >= len(row) {
				dropped++
				continue
			}
			data.features = append(data.features, result.Rows[i])
			data.labels = append(data.labels, row[labelIndex])
		}
		data.dropped += dropped

		p.log.WithFields(log.Fields{
			"path":    path,
			"rows":    table.Len(),
			"dropped": dropped,
		}).Info("Read dataset")
		for _, sample := range result.Samples {
			p.log.WithFields(log.Fields{
				"path":   path,
				"row":    sample.Row,
				"column": sample.Column,
				"value":  sample.Value,
				"reason": sample.Reason,
			}).Debug("Dropped row")
		}
		bar.step()
	}

	if len(data.features) == 0 {
		return nil, errors.New("no usable rows in the training data")
	}
	return data, nil
}

// dedupe removes rows whose features and label repeat an earlier row
func (p *Pipeline) dedupe(data *corpus) {
	seen := make(map[[32]byte]struct{}, len(data.features))
	buf := make([]byte, 0, 8*len(data.schema)+32)

	kept := 0
	for i, row := range data.features {
		buf = buf[:0]
		for _, value := range row {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(value))
		}
		buf = append(buf, labels.Clean(data.labels[i])...)

		key := blake3.Sum256(buf)
		if _, ok := seen[key]; ok {
			data.duplicates++
			continue
		}
		seen[key] = struct{}{}
		data.features[kept] = row
		data.labels[kept] = data.labels[i]
		kept++
	}
	data.features = data.features[:kept]
	data.labels = data.labels[:kept]
}

func (p *Pipeline) fit(features [][]float64, codes []int) (*forest.Forest, error) {
	settings := p.config.S.Forest
	bar := p.startProgress("Fitting Forest:", settings.Trees)
	defer bar.done()

	model := forest.New(
		forest.WithTrees(settings.Trees),
		forest.WithMaxDepth(settings.MaxDepth),
		forest.WithMinSamplesLeaf(settings.MinSamplesLeaf),
		forest.WithMaxFeatures(settings.MaxFeatures),
		forest.WithWorkers(settings.Workers),
		forest.WithSeed(p.config.S.Balancing.Seed),
		forest.WithProgress(bar.step),
	)

	start := time.Now()
	if err := model.Fit(features, codes); err != nil {
		return nil, err
	}
	p.log.WithFields(log.Fields{
		"trees":    settings.Trees,
		"rows":     len(features),
		"duration": time.Since(start).String(),
	}).Info("Fit random forest")
	return model, nil
}

func (p *Pipeline) record(report *evaluate.Report) {
	if p.metrics == nil {
		return
	}
	p.metrics.Accuracy.Set(report.Accuracy)
	for label, count := range report.TrainCounts {
		p.metrics.TrainingRows.WithLabelValues("train", label).Set(float64(count))
	}
	for label, count := range report.TestCounts {
		p.metrics.TrainingRows.WithLabelValues("test", label).Set(float64(count))
	}
}

// nameClass fills in the label of a balancing fault
func nameClass(err error, codec *labels.Codec) error {
	var samplesErr *balance.InsufficientSamplesError
	if errors.As(err, &samplesErr) && samplesErr.Label == "" {
		if label, decodeErr := codec.Decode(samplesErr.Class); decodeErr == nil {
			samplesErr.Label = label
		}
	}
	return err
}

func subset(features [][]float64, codes []int, rows []int) ([][]float64, []int) {
	outFeatures := make([][]float64, len(rows))
	outCodes := make([]int, len(rows))
	for i, row := range rows {
		outFeatures[i] = features[row]
		outCodes[i] = codes[row]
	}
	return outFeatures, outCodes
}

func countLabels(codes []int, codec *labels.Codec) map[string]int {
	counts := make(map[string]int)
	for code, count := range balance.Counts(codes) {
		label, err := codec.Decode(code)
		if err != nil {
			continue
		}
		counts[label] = count
	}
	return counts
}

// rankFeatures returns the most important features, highest first
func rankFeatures(features []string, importances []float64) []evaluate.FeatureScore {
	ranked := make([]evaluate.FeatureScore, 0, len(features))
	for i, name := range features {
		if i >= len(importances) {
			break
		}
		ranked = append(ranked, evaluate.FeatureScore{Feature: name, Score: importances[i]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > importanceLimit {
		ranked = ranked[:importanceLimit]
	}
	return ranked
}
