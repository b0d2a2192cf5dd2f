package forecast

import (
	"math/rand"
	"sort"
)

// regressionTree is a CART tree that splits on the feature/threshold pair
// minimizing the summed squared error of the two children.
type regressionTree struct {
	feature   int
	threshold float64
	value     float64
	left      *regressionTree
	right     *regressionTree
}

func (t *regressionTree) leaf() bool { return t.left == nil }

func (t *regressionTree) predict(x []float64) float64 {
	node := t
	for !node.leaf() {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

type treeParams struct {
	maxDepth int
	minLeaf  int
}

func growTree(xs [][]float64, ys []float64, idx []int, depth int, p treeParams) *regressionTree {
	node := &regressionTree{value: meanAt(ys, idx)}
	if depth >= p.maxDepth || len(idx) < 2*p.minLeaf {
		return node
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, sseAt(ys, idx)
	if bestScore == 0 {
		return node
	}

	sorted := make([]int, len(idx))
	for f := range xs[idx[0]] {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool { return xs[sorted[i]][f] < xs[sorted[j]][f] })

		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += ys[i]
			totalSq += ys[i] * ys[i]
		}

		var leftSum, leftSq float64
		for k := 0; k < len(sorted)-1; k++ {
			y := ys[sorted[k]]
			leftSum += y
			leftSq += y * y

			nl := float64(k + 1)
			nr := float64(len(sorted) - k - 1)
			if int(nl) < p.minLeaf || int(nr) < p.minLeaf {
				continue
			}
			cur, next := xs[sorted[k]][f], xs[sorted[k+1]][f]
			if cur == next {
				continue
			}
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			score := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if score < bestScore {
				bestFeature, bestThreshold, bestScore = f, (cur+next)/2, score
			}
		}
	}
	if bestFeature < 0 {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if xs[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = growTree(xs, ys, left, depth+1, p)
	node.right = growTree(xs, ys, right, depth+1, p)
	return node
}

// forestModel averages bootstrap-trained regression trees.
type forestModel struct {
	trees []*regressionTree
}

func fitForest(xs [][]float64, ys []float64, trees int, p treeParams, seed int64) *forestModel {
	rng := rand.New(rand.NewSource(seed))
	m := &forestModel{trees: make([]*regressionTree, 0, trees)}
	for t := 0; t < trees; t++ {
		sample := make([]int, len(ys))
		for i := range sample {
			sample[i] = rng.Intn(len(ys))
		}
		m.trees = append(m.trees, growTree(xs, ys, sample, 0, p))
	}
	return m
}

func (m *forestModel) predict(x []float64) float64 {
	if len(m.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range m.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(m.trees))
}

func meanAt(ys []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += ys[i]
	}
	return sum / float64(len(idx))
}

func sseAt(ys []float64, idx []int) float64 {
	mean := meanAt(ys, idx)
	var sse float64
	for _, i := range idx {
		d := ys[i] - mean
		sse += d * d
	}
	return sse
}
