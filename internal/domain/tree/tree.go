// Package tree evaluates binary threshold decision trees.
package tree

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/modelserve/internal/domain"
	"github.com/kailas-cloud/modelserve/internal/domain/prediction"
)

// Lookup resolves a feature value by name.
type Lookup interface {
	Get(name string) (float64, bool)
}

// Node is either an internal split or a leaf. Each internal node exclusively
// owns its two children.
type Node struct {
	feature   string
	threshold float64
	left      *Node
	right     *Node
	counts    []float64 // non-nil iff leaf
}

// NewLeaf creates a leaf holding a per-class count distribution.
func NewLeaf(counts []float64) (*Node, error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("leaf has no class counts")
	}
	for i, c := range counts {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("class count %d is not finite", i)
		}
		if c < 0 {
			return nil, fmt.Errorf("class count %d is negative", i)
		}
	}
	own := make([]float64, len(counts))
	copy(own, counts)
	return &Node{counts: own}, nil
}

// NewInternal creates a split node: values <= threshold go left, others go right.
func NewInternal(feature string, threshold float64, left, right *Node) (*Node, error) {
	if feature == "" {
		return nil, fmt.Errorf("split feature is empty")
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, fmt.Errorf("threshold is not finite")
	}
	if left == nil || right == nil {
		return nil, fmt.Errorf("split node requires both children")
	}
	if left == right {
		return nil, fmt.Errorf("split node children must be distinct")
	}
	return &Node{feature: feature, threshold: threshold, left: left, right: right}, nil
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool { return n.counts != nil }

// Feature returns the split feature name (empty for leaves).
func (n *Node) Feature() string { return n.feature }

// Threshold returns the split threshold.
func (n *Node) Threshold() float64 { return n.threshold }

// Left returns the subtree for values <= threshold.
func (n *Node) Left() *Node { return n.left }

// Right returns the subtree for values > threshold.
func (n *Node) Right() *Node { return n.right }

// Counts returns the leaf class counts (nil for internal nodes).
func (n *Node) Counts() []float64 { return n.counts }

// Tree is a validated decision tree (immutable).
type Tree struct {
	root     *Node
	classes  int
	depth    int
	leaves   int
	features map[string]struct{}
}

// New validates the structure under root: all leaves share one class count.
func New(root *Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("tree has no root")
	}
	t := &Tree{root: root, features: make(map[string]struct{})}

	type frame struct {
		node  *Node
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth > t.depth {
			t.depth = f.depth
		}
		if f.node.IsLeaf() {
			t.leaves++
			if t.classes == 0 {
				t.classes = len(f.node.counts)
			} else if len(f.node.counts) != t.classes {
				return nil, fmt.Errorf("leaf has %d classes, expected %d", len(f.node.counts), t.classes)
			}
			continue
		}
		t.features[f.node.feature] = struct{}{}
		stack = append(stack, frame{f.node.right, f.depth + 1}, frame{f.node.left, f.depth + 1})
	}
	return t, nil
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Classes returns the number of classes in every leaf.
func (t *Tree) Classes() int { return t.classes }

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int { return t.depth }

// Leaves returns the number of leaves.
func (t *Tree) Leaves() int { return t.leaves }

// Features returns the set of split feature names.
func (t *Tree) Features() map[string]struct{} { return t.features }

// Evaluate walks from the root to a leaf and returns its class counts.
// The walk takes at most Depth() steps.
func (t *Tree) Evaluate(x Lookup) ([]float64, error) {
	n := t.root
	for step := 0; step <= t.depth; step++ {
		if n.IsLeaf() {
			return n.counts, nil
		}
		v, ok := x.Get(n.feature)
		if !ok {
			return nil, domain.NewMissingFeature(n.feature)
		}
		if v <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return nil, fmt.Errorf("traversal exceeded depth %d", t.depth)
}

// Predict labels the reached leaf by its majority class. Scores are the
// leaf counts normalized to probabilities.
func (t *Tree) Predict(x Lookup) (prediction.Prediction, error) {
	counts, err := t.Evaluate(x)
	if err != nil {
		return prediction.Prediction{}, err
	}
	return prediction.New(prediction.ArgMax(counts), prediction.Normalize(counts)), nil
}
