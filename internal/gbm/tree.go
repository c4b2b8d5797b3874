package gbm

import (
	"cmp"
	"slices"
)

// Node is one entry of a flattened regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n Node) leaf() bool { return n.Feature < 0 }

// Tree is a binary regression tree stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict walks the tree for row. Samples with row[Feature] <= Threshold go left.
func (t *Tree) Predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.leaf() {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.leaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

// builder grows one least-squares tree over a fixed column-major design.
type builder struct {
	cols   [][]float64 // feature-major copy of the design matrix
	target []float64
	cfg    Config
	nodes  []Node
	left   []bool // scratch: per-sample side of the current split
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// presort returns, per feature, the sample indices ordered by value. Ties keep
// index order so the search is deterministic.
func presort(cols [][]float64, n int) [][]int {
	orders := make([][]int, len(cols))
	for f, col := range cols {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(col[a], col[b]) })
		orders[f] = idx
	}
	return orders
}

func (b *builder) grow(orders [][]int) Tree {
	b.nodes = b.nodes[:0]
	b.build(orders, 0)
	nodes := make([]Node, len(b.nodes))
	copy(nodes, b.nodes)
	return Tree{Nodes: nodes}
}

func (b *builder) build(orders [][]int, depth int) int {
	samples := orders[0]
	n := len(samples)
	var sum float64
	for _, i := range samples {
		sum += b.target[i]
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Left: -1, Right: -1, Value: sum / float64(n)})

	if depth >= b.cfg.MaxDepth || n < b.cfg.MinSamplesSplit || n < 2*b.cfg.MinSamplesLeaf {
		return id
	}
	best, ok := b.bestSplit(orders, sum)
	if !ok {
		return id
	}

	for _, i := range samples {
		b.left[i] = b.cols[best.feature][i] <= best.threshold
	}
	leftOrders := make([][]int, len(orders))
	rightOrders := make([][]int, len(orders))
	for f, order := range orders {
		l := make([]int, 0, n)
		r := make([]int, 0, n)
		for _, i := range order {
			if b.left[i] {
				l = append(l, i)
			} else {
				r = append(r, i)
			}
		}
		leftOrders[f], rightOrders[f] = l, r
	}

	leftID := b.build(leftOrders, depth+1)
	rightID := b.build(rightOrders, depth+1)
	b.nodes[id].Feature = best.feature
	b.nodes[id].Threshold = best.threshold
	b.nodes[id].Left = leftID
	b.nodes[id].Right = rightID
	return id
}

// bestSplit scans every feature for the cut with the largest Friedman
// improvement nl*nr/n * (meanL-meanR)^2, which equals the reduction in squared
// error. Earlier features and lower thresholds win ties.
func (b *builder) bestSplit(orders [][]int, sum float64) (split, bool) {
	n := len(orders[0])
	minLeaf := b.cfg.MinSamplesLeaf
	best := split{feature: -1}

	for f, order := range orders {
		col := b.cols[f]
		var sl float64
		for k := 1; k < n; k++ {
			sl += b.target[order[k-1]]
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := col[order[k-1]], col[order[k]]
			if lo == hi {
				continue
			}
			nl, nr := float64(k), float64(n-k)
			diff := sl/nl - (sum-sl)/nr
			gain := nl * nr / float64(n) * diff * diff
			if gain > best.gain {
				thr := lo/2 + hi/2
				if thr >= hi {
					thr = lo
				}
				best = split{feature: f, threshold: thr, gain: gain}
			}
		}
	}
	return best, best.feature >= 0
}
