package balance

import (
	"math/rand"
)

// Oversample applies SMOTE: every class is grown to the size of the largest
// class with synthetic rows. A synthetic row lies on the segment between a
// random member of the class and one of its k nearest same class neighbors.
// The input is not modified; synthetic rows are appended after the originals.
func Oversample(features [][]float64, codes []int, k int, seed int64) ([][]float64, []int, error) {
	counts := Counts(codes)
	target := 0
	for _, count := range counts {
		if count > target {
			target = count
		}
	}

	members := make(map[int][]int)
	for i, code := range codes {
		members[code] = append(members[code], i)
	}

	outFeatures := append([][]float64(nil), features...)
	outCodes := append([]int(nil), codes...)

	rng := rand.New(rand.NewSource(seed))
	for _, class := range sortedClasses(counts) {
		need := target - counts[class]
		if need == 0 {
			continue
		}
		if counts[class] < k+1 {
			return nil, nil, &InsufficientSamplesError{Stage: "oversampling", Class: class, Count: counts[class], Minimum: k + 1}
		}

		finder := newNeighborFinder(features, members[class], k)
		for i := 0; i < need; i++ {
			base := members[class][rng.Intn(len(members[class]))]
			neighbors := finder.neighbors(base)
			neighbor := neighbors[rng.Intn(len(neighbors))]
			step := rng.Float64()

			synthetic := make([]float64, len(features[base]))
			for f := range synthetic {
				synthetic[f] = features[base][f] + step*(features[neighbor][f]-features[base][f])
			}
			outFeatures = append(outFeatures, synthetic)
			outCodes = append(outCodes, class)
		}
	}
	return outFeatures, outCodes, nil
}

// neighborFinder answers k nearest neighbor queries within one class by brute
// force, caching the answer for every row it has seen
type neighborFinder struct {
	features [][]float64
	members  []int
	k        int
	cache    map[int][]int
}

func newNeighborFinder(features [][]float64, members []int, k int) *neighborFinder {
	return &neighborFinder{
		features: features,
		members:  members,
		k:        k,
		cache:    make(map[int][]int),
	}
}

// neighbors returns the k members closest to row, excluding row itself. Ties
// are broken by member order.
func (n *neighborFinder) neighbors(row int) []int {
	if cached, ok := n.cache[row]; ok {
		return cached
	}

	best := make([]int, 0, n.k)
	bestDist := make([]float64, 0, n.k)
	for _, candidate := range n.members {
		if candidate == row {
			continue
		}
		dist := squaredDistance(n.features[row], n.features[candidate])
		if len(best) == n.k && dist >= bestDist[n.k-1] {
			continue
		}
		// insertion into the sorted top k
		pos := len(best)
		for pos > 0 && bestDist[pos-1] > dist {
			pos--
		}
		if len(best) < n.k {
			best = append(best, 0)
			bestDist = append(bestDist, 0)
		}
		copy(best[pos+1:], best[pos:len(best)-1])
		copy(bestDist[pos+1:], bestDist[pos:len(bestDist)-1])
		best[pos] = candidate
		bestDist[pos] = dist
	}

	n.cache[row] = best
	return best
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
