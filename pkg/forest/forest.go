// Package forest is a random forest of CART classification trees. Trees are
// grown on bootstrap samples with a random subset of features considered at
// every split, and predictions average the class distributions of the leaves.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

type (
	// Forest is a trained (or untrained) random forest. The exported fields are
	// the serialized form of the model.
	Forest struct {
		Trees       []*Tree   `json:"trees"`
		Classes     int       `json:"classes"`
		Features    int       `json:"features"`
		Importances []float64 `json:"importances"`

		settings settings
	}

	// Option configures a Forest before fitting
	Option func(*settings)

	settings struct {
		trees          int
		maxDepth       int
		minSamplesLeaf int
		maxFeatures    int
		seed           int64
		workers        int
		progress       func()
	}
)

// WithTrees sets the number of trees
func WithTrees(n int) Option {
	return func(s *settings) { s.trees = n }
}

// WithMaxDepth limits tree depth, zero means unlimited
func WithMaxDepth(depth int) Option {
	return func(s *settings) { s.maxDepth = depth }
}

// WithMinSamplesLeaf sets the smallest number of samples a leaf may hold
func WithMinSamplesLeaf(n int) Option {
	return func(s *settings) { s.minSamplesLeaf = n }
}

// WithMaxFeatures sets how many features each split considers, zero selects
// the square root of the feature count
func WithMaxFeatures(n int) Option {
	return func(s *settings) { s.maxFeatures = n }
}

// WithSeed makes fitting reproducible
func WithSeed(seed int64) Option {
	return func(s *settings) { s.seed = seed }
}

// WithWorkers sets how many trees are grown at once, zero uses every CPU
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithProgress registers a callback run after each tree is grown
func WithProgress(fn func()) Option {
	return func(s *settings) { s.progress = fn }
}

// New creates an untrained forest
func New(opts ...Option) *Forest {
	s := settings{
		trees:          100,
		minSamplesLeaf: 1,
		seed:           42,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	if s.minSamplesLeaf <= 0 {
		s.minSamplesLeaf = 1
	}
	return &Forest{settings: s}
}

// Fit grows the forest on a feature matrix and a vector of class codes. Codes
// must be in [0, classes).
func (f *Forest) Fit(features [][]float64, codes []int) error {
	if len(features) == 0 {
		return errors.New("cannot fit a forest on an empty training set")
	}
	if len(features) != len(codes) {
		return fmt.Errorf("training set has %d rows but %d labels", len(features), len(codes))
	}
	if f.settings.trees <= 0 {
		return fmt.Errorf("forest needs at least one tree, got %d", f.settings.trees)
	}

	width := len(features[0])
	classes := 0
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
		if codes[i] < 0 {
			return fmt.Errorf("row %d has negative class code %d", i, codes[i])
		}
		if codes[i]+1 > classes {
			classes = codes[i] + 1
		}
	}

	maxFeatures := f.settings.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(width)))
	}
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	if maxFeatures > width {
		maxFeatures = width
	}

	// seeds are drawn up front so the result does not depend on scheduling
	master := rand.New(rand.NewSource(f.settings.seed))
	seeds := make([]int64, f.settings.trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*Tree, f.settings.trees)
	importances := make([][]float64, f.settings.trees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	var progressLock sync.Mutex

	workers := f.settings.workers
	if workers > f.settings.trees {
		workers = f.settings.trees
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				g := &grower{
					features:       features,
					codes:          codes,
					classes:        classes,
					maxDepth:       f.settings.maxDepth,
					minSamplesLeaf: f.settings.minSamplesLeaf,
					maxFeatures:    maxFeatures,
					rng:            rand.New(rand.NewSource(seeds[i])),
					importance:     make([]float64, width),
				}
				trees[i] = g.grow()
				importances[i] = g.importance

				if f.settings.progress != nil {
					progressLock.Lock()
					f.settings.progress()
					progressLock.Unlock()
				}
			}
		}()
	}
	for i := range trees {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	f.Trees = trees
	f.Classes = classes
	f.Features = width
	f.Importances = averageImportances(importances, width)
	return nil
}

// averageImportances normalizes each tree's impurity decrease and averages
// them across trees
func averageImportances(perTree [][]float64, width int) []float64 {
	out := make([]float64, width)
	for _, importance := range perTree {
		var total float64
		for _, value := range importance {
			total += value
		}
		if total == 0 {
			continue
		}
		for i, value := range importance {
			out[i] += value / total
		}
	}
	for i := range out {
		out[i] /= float64(len(perTree))
	}
	return out
}

// PredictProba returns the averaged class distribution for one row
func (f *Forest) PredictProba(row []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("forest has not been fit")
	}
	if len(row) != f.Features {
		return nil, fmt.Errorf("row has %d features, the forest was fit on %d", len(row), f.Features)
	}

	proba := make([]float64, f.Classes)
	for _, tree := range f.Trees {
		for class, share := range tree.leaf(row).Value {
			proba[class] += share
		}
	}
	for class := range proba {
		proba[class] /= float64(len(f.Trees))
	}
	return proba, nil
}

// PredictOne returns the most probable class code for one row, the lowest
// code wins ties
func (f *Forest) PredictOne(row []float64) (int, error) {
	proba, err := f.PredictProba(row)
	if err != nil {
		return 0, err
	}
	best := 0
	for class, share := range proba {
		if share > proba[best] {
			best = class
		}
	}
	return best, nil
}

// Predict returns class codes for every row
func (f *Forest) Predict(rows [][]float64) ([]int, error) {
	codes := make([]int, len(rows))
	for i, row := range rows {
		code, err := f.PredictOne(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		codes[i] = code
	}
	return codes, nil
}

// NumClasses returns the number of classes the forest predicts
func (f *Forest) NumClasses() int {
	return f.Classes
}

// NumFeatures returns the width of the rows the forest expects
func (f *Forest) NumFeatures() int {
	return f.Features
}
