// Package balance reshapes an imbalanced training set: the majority class is
// capped, the data is split with stratification, and minority classes in the
// training split are oversampled with SMOTE
package balance

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

type (
	// InsufficientSamplesError is the balancing fault raised when a class is
	// too small for a stage. Label is filled in by callers that know the codec.
	InsufficientSamplesError struct {
		Stage   string
		Class   int
		Label   string
		Count   int
		Minimum int
	}
)

func (e *InsufficientSamplesError) Error() string {
	name := e.Label
	if name == "" {
		name = fmt.Sprintf("class %d", e.Class)
	}
	return fmt.Sprintf("%s: %q has %d row(s), at least %d are required; add more examples of this class or merge it into another category",
		e.Stage, name, e.Count, e.Minimum)
}

// Downsample keeps at most limit rows labeled class, chosen without
// replacement, and every row of the other classes. It returns row indices: the
// sampled majority rows first, then the remaining rows in input order.
func Downsample(labels []string, class string, limit int, seed int64) []int {
	var majority, rest []int
	for i, label := range labels {
		if label == class {
			majority = append(majority, i)
		} else {
			rest = append(rest, i)
		}
	}

	if len(majority) > limit {
		rng := rand.New(rand.NewSource(seed))
		perm := rng.Perm(len(majority))
		sampled := make([]int, limit)
		for i := 0; i < limit; i++ {
			sampled[i] = majority[perm[i]]
		}
		majority = sampled
	}

	return append(majority, rest...)
}

// Counts tallies the rows of each class
func Counts(codes []int) map[int]int {
	counts := make(map[int]int)
	for _, code := range codes {
		counts[code]++
	}
	return counts
}

// sortedClasses returns the classes present in counts in ascending order
func sortedClasses(counts map[int]int) []int {
	classes := make([]int, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return classes
}

// StratifiedSplit partitions row indices into train and test sets. The test
// set holds ceil(n*testRatio) rows, allocated to classes in proportion to
// their size so every class keeps its share in both sets. Both index lists are
// returned in ascending order.
func StratifiedSplit(codes []int, testRatio float64, seed int64) (train []int, test []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be between 0 and 1, got %v", testRatio)
	}

	members := make(map[int][]int)
	for i, code := range codes {
		members[code] = append(members[code], i)
	}
	counts := Counts(codes)
	classes := sortedClasses(counts)
	for _, class := range classes {
		if counts[class] < 2 {
			return nil, nil, &InsufficientSamplesError{Stage: "stratified split", Class: class, Count: counts[class], Minimum: 2}
		}
	}

	allocation := allocateTest(counts, classes, len(codes), testRatio)

	rng := rand.New(rand.NewSource(seed))
	for _, class := range classes {
		indices := append([]int(nil), members[class]...)
		rng.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
		test = append(test, indices[:allocation[class]]...)
		train = append(train, indices[allocation[class]:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// allocateTest distributes ceil(total*ratio) test rows across classes with the
// largest remainder method, never taking every row of a class
func allocateTest(counts map[int]int, classes []int, total int, ratio float64) map[int]int {
	testTotal := int(math.Ceil(float64(total) * ratio))

	type share struct {
		class     int
		remainder float64
	}
	allocation := make(map[int]int, len(classes))
	shares := make([]share, 0, len(classes))
	assigned := 0
	for _, class := range classes {
		exact := float64(counts[class]) * float64(testTotal) / float64(total)
		whole := int(math.Floor(exact))
		if whole > counts[class]-1 {
			whole = counts[class] - 1
		}
		allocation[class] = whole
		assigned += whole
		shares = append(shares, share{class: class, remainder: exact - float64(whole)})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].remainder > shares[j].remainder
	})
	for _, s := range shares {
		if assigned >= testTotal {
			break
		}
		if allocation[s.class] < counts[s.class]-1 {
			allocation[s.class]++
			assigned++
		}
	}
	return allocation
}
