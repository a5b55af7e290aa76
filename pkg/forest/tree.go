package forest

import (
	"math/rand"
	"sort"
)

const leafFeature = -1

type (
	// Tree is a binary classification tree stored as a flat node list with the
	// root at index zero
	Tree struct {
		Nodes []Node `json:"nodes"`
	}

	// Node is either a split (Feature >= 0) sending rows with a value at or
	// below Threshold to Left, or a leaf holding a class distribution
	Node struct {
		Feature   int       `json:"f"`
		Threshold float64   `json:"t,omitempty"`
		Left      int       `json:"l,omitempty"`
		Right     int       `json:"r,omitempty"`
		Value     []float64 `json:"v,omitempty"`
	}

	// grower builds one tree
	grower struct {
		features       [][]float64
		codes          []int
		classes        int
		maxDepth       int
		minSamplesLeaf int
		maxFeatures    int
		rng            *rand.Rand
		importance     []float64

		nodes   []Node
		scratch []pair
	}

	pair struct {
		value float64
		code  int
	}

	split struct {
		feature   int
		threshold float64
		score     float64
	}
)

// leaf walks the tree down to the leaf that row falls in
func (t *Tree) leaf(row []float64) *Node {
	node := &t.Nodes[0]
	for node.Feature != leafFeature {
		if row[node.Feature] <= node.Threshold {
			node = &t.Nodes[node.Left]
		} else {
			node = &t.Nodes[node.Right]
		}
	}
	return node
}

// grow draws a bootstrap sample and builds the tree from it
func (g *grower) grow() *Tree {
	n := len(g.features)
	sample := make([]int, n)
	for i := range sample {
		sample[i] = g.rng.Intn(n)
	}
	g.scratch = make([]pair, n)
	g.build(sample, 0)
	return &Tree{Nodes: g.nodes}
}

// build appends the subtree for the given sample rows and returns its index
func (g *grower) build(sample []int, depth int) int {
	counts := make([]float64, g.classes)
	for _, row := range sample {
		counts[g.codes[row]]++
	}

	index := len(g.nodes)
	g.nodes = append(g.nodes, Node{Feature: leafFeature})

	if g.isPure(counts) ||
		len(sample) < 2*g.minSamplesLeaf ||
		(g.maxDepth > 0 && depth >= g.maxDepth) {
		g.nodes[index].Value = distribution(counts, len(sample))
		return index
	}

	best, ok := g.bestSplit(sample, counts)
	if !ok {
		g.nodes[index].Value = distribution(counts, len(sample))
		return index
	}

	// partition in place, rows at or below the threshold first
	boundary := 0
	for i, row := range sample {
		if g.features[row][best.feature] <= best.threshold {
			sample[i], sample[boundary] = sample[boundary], sample[i]
			boundary++
		}
	}

	parent := float64(len(sample)) - sumSquares(counts)/float64(len(sample))
	g.importance[best.feature] += parent - (float64(len(sample)) - best.score)

	left := g.build(sample[:boundary], depth+1)
	right := g.build(sample[boundary:], depth+1)
	g.nodes[index].Feature = best.feature
	g.nodes[index].Threshold = best.threshold
	g.nodes[index].Left = left
	g.nodes[index].Right = right
	return index
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted gini impurity. Like the usual CART implementations it keeps
// looking past the subset until at least one valid split is found.
func (g *grower) bestSplit(sample []int, counts []float64) (split, bool) {
	width := len(g.features[0])
	order := g.rng.Perm(width)

	best := split{feature: leafFeature}
	found := false
	for visited, feature := range order {
		if visited >= g.maxFeatures && found {
			break
		}
		candidate, ok := g.splitOn(feature, sample, counts)
		if ok && (!found || candidate.score > best.score) {
			best = candidate
			found = true
		}
	}
	return best, found
}

// splitOn finds the best threshold for one feature. The score is
// sum(left²)/nl + sum(right²)/nr, which grows as weighted gini impurity shrinks.
func (g *grower) splitOn(feature int, sample []int, counts []float64) (split, bool) {
	pairs := g.scratch[:len(sample)]
	for i, row := range sample {
		pairs[i] = pair{value: g.features[row][feature], code: g.codes[row]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

	if pairs[0].value == pairs[len(pairs)-1].value {
		return split{}, false
	}

	left := make([]float64, g.classes)
	right := append([]float64(nil), counts...)
	leftSquares := 0.0
	rightSquares := sumSquares(counts)

	best := split{feature: feature}
	found := false
	n := len(pairs)
	for i := 0; i < n-1; i++ {
		code := pairs[i].code
		leftSquares += 2*left[code] + 1
		left[code]++
		rightSquares -= 2*right[code] - 1
		right[code]--

		if pairs[i].value == pairs[i+1].value {
			continue
		}
		nl := i + 1
		nr := n - nl
		if nl < g.minSamplesLeaf || nr < g.minSamplesLeaf {
			continue
		}

		score := leftSquares/float64(nl) + rightSquares/float64(nr)
		if !found || score > best.score {
			threshold := pairs[i].value/2 + pairs[i+1].value/2
			if threshold >= pairs[i+1].value {
				threshold = pairs[i].value
			}
			best.threshold = threshold
			best.score = score
			found = true
		}
	}
	return best, found
}

func (g *grower) isPure(counts []float64) bool {
	nonZero := 0
	for _, count := range counts {
		if count > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func sumSquares(counts []float64) float64 {
	var sum float64
	for _, count := range counts {
		sum += count * count
	}
	return sum
}

func distribution(counts []float64, total int) []float64 {
	value := make([]float64, len(counts))
	for i, count := range counts {
		value[i] = count / float64(total)
	}
	return value
}
