package model

import (
	"fmt"
	"math"
)

// TreeNode is one node of a fitted decision tree in flattened form. A node with
// Left < 0 is a leaf and carries Value; otherwise rows with row[Feature] <= Threshold
// go left.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// IsLeaf reports whether the node terminates a decision path.
func (n TreeNode) IsLeaf() bool {
	return n.Left < 0
}

// DecisionTree is a flattened binary decision tree rooted at node 0.
type DecisionTree struct {
	nodes []TreeNode
}

// NewDecisionTree validates nodes against width. Children must come after their parent,
// which rules out cycles.
func NewDecisionTree(nodes []TreeNode, width int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("tree has no nodes")
	}
	for i, n := range nodes {
		if n.IsLeaf() {
			if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
				return nil, fmt.Errorf("leaf %d value is not finite", i)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= width {
			return nil, fmt.Errorf("node %d splits on feature %d, outside width %d", i, n.Feature, width)
		}
		if n.Left <= i || n.Left >= len(nodes) || n.Right <= i || n.Right >= len(nodes) {
			return nil, fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
		if math.IsNaN(n.Threshold) {
			return nil, fmt.Errorf("node %d threshold is NaN", i)
		}
	}
	return &DecisionTree{nodes: append([]TreeNode(nil), nodes...)}, nil
}

// leaf walks row down the tree and returns the leaf value.
func (t *DecisionTree) leaf(row []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// RandomForest averages per-tree positive-class probabilities. Leaf values are the
// positive-class fraction of the training samples that reached the leaf.
type RandomForest struct {
	trees []*DecisionTree
	width int
}

// NewRandomForest creates a forest whose trees were trained on width features.
func NewRandomForest(trees []*DecisionTree, width int) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("random forest has no trees")
	}
	if width <= 0 {
		return nil, fmt.Errorf("random forest width must be positive")
	}
	for i, t := range trees {
		for j, n := range t.nodes {
			if n.IsLeaf() && (n.Value < 0 || n.Value > 1) {
				return nil, fmt.Errorf("tree %d leaf %d probability %v outside [0,1]", i, j, n.Value)
			}
		}
	}
	return &RandomForest{trees: append([]*DecisionTree(nil), trees...), width: width}, nil
}

// Width implements Classifier.
func (f *RandomForest) Width() int {
	return f.width
}

// Kind implements Classifier.
func (f *RandomForest) Kind() string {
	return KindRandomForest
}

// PredictProba implements Classifier.
func (f *RandomForest) PredictProba(row []float64) (float64, error) {
	if len(row) != f.width {
		return 0, fmt.Errorf("classifier expects %d features, got %d: %w", f.width, len(row), ErrWidthMismatch)
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.leaf(row)
	}
	return sum / float64(len(f.trees)), nil
}

// GradientBoosting is a binary gradient-boosted ensemble with log-loss: the raw score
// is the initial log-odds plus the learning-rate-weighted sum of tree outputs.
type GradientBoosting struct {
	trees        []*DecisionTree
	width        int
	learningRate float64
	initScore    float64
}

// NewGradientBoosting creates a boosted ensemble trained on width features.
func NewGradientBoosting(trees []*DecisionTree, width int, learningRate, initScore float64) (*GradientBoosting, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("gradient boosting has no trees")
	}
	if width <= 0 {
		return nil, fmt.Errorf("gradient boosting width must be positive")
	}
	if math.IsNaN(learningRate) || learningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %v", learningRate)
	}
	if math.IsNaN(initScore) || math.IsInf(initScore, 0) {
		return nil, fmt.Errorf("initial score is not finite")
	}
	return &GradientBoosting{
		trees:        append([]*DecisionTree(nil), trees...),
		width:        width,
		learningRate: learningRate,
		initScore:    initScore,
	}, nil
}

// Width implements Classifier.
func (g *GradientBoosting) Width() int {
	return g.width
}

// Kind implements Classifier.
func (g *GradientBoosting) Kind() string {
	return KindGradientBoosting
}

// PredictProba implements Classifier.
func (g *GradientBoosting) PredictProba(row []float64) (float64, error) {
	if len(row) != g.width {
		return 0, fmt.Errorf("classifier expects %d features, got %d: %w", g.width, len(row), ErrWidthMismatch)
	}
	raw := g.initScore
	for _, t := range g.trees {
		raw += g.learningRate * t.leaf(row)
	}
	return sigmoid(raw), nil
}
