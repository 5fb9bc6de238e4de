package model

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
)

// Predictor scores rows of feature values that are already in model column order.
type Predictor interface {
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

// Node is one node of a regression tree. Leaves have Left == -1 and carry Value.
// Thresholds and leaf values are float32, the precision XGBoost stores and
// evaluates them in.
type Node struct {
	Feature     int
	Threshold   float32
	Left        int
	Right       int
	DefaultLeft bool
	Value       float32
}

// IsLeaf reports whether the node terminates a path.
func (n Node) IsLeaf() bool { return n.Left == -1 }

// Tree is a regression tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node
}

// Booster is a gradient boosted tree ensemble. The prediction for a row is
// BaseScore plus the leaf value reached in every tree, accumulated in float32
// as XGBoost does. It is immutable after
// construction and safe for concurrent use.
type Booster struct {
	objective    string
	baseScore    float32
	numFeature   int
	featureNames []string
	trees        []Tree
}

// BoosterParams configures NewBooster.
type BoosterParams struct {
	Objective    string
	BaseScore    float32
	NumFeature   int
	FeatureNames []string // optional; when set its length must equal NumFeature
	Trees        []Tree
}

// NewBooster validates params and builds a Booster.
func NewBooster(p BoosterParams) (*Booster, error) {
	if p.Objective == "" {
		p.Objective = ObjectiveSquaredError
	}
	if !supportedObjective(p.Objective) {
		return nil, fmt.Errorf("unsupported objective %q", p.Objective)
	}
	if p.NumFeature <= 0 {
		return nil, fmt.Errorf("num_feature must be positive, got %d", p.NumFeature)
	}
	if len(p.FeatureNames) > 0 && len(p.FeatureNames) != p.NumFeature {
		return nil, fmt.Errorf("%d feature names for %d features", len(p.FeatureNames), p.NumFeature)
	}
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("model has no trees")
	}
	for i, t := range p.Trees {
		if err := validateTree(t, p.NumFeature); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}

	trees := make([]Tree, len(p.Trees))
	for i, t := range p.Trees {
		trees[i] = Tree{Nodes: slices.Clone(t.Nodes)}
	}
	return &Booster{
		objective:    p.Objective,
		baseScore:    p.BaseScore,
		numFeature:   p.NumFeature,
		featureNames: slices.Clone(p.FeatureNames),
		trees:        trees,
	}, nil
}

// validateTree checks child indices and split features, and that every node
// reachable from the root is visited once so evaluation always terminates.
func validateTree(t Tree, numFeature int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("no nodes")
	}
	visited := make([]bool, len(t.Nodes))
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[i] {
			return fmt.Errorf("node %d: reached twice", i)
		}
		visited[i] = true

		n := t.Nodes[i]
		if n.IsLeaf() {
			continue
		}
		if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: children (%d, %d) out of range", i, n.Left, n.Right)
		}
		if n.Feature < 0 || n.Feature >= numFeature {
			return fmt.Errorf("node %d: split feature %d outside [0, %d)", i, n.Feature, numFeature)
		}
		stack = append(stack, n.Right, n.Left)
	}
	return nil
}

// Objective returns the training objective name.
func (b *Booster) Objective() string { return b.objective }

// BaseScore returns the global bias added to every prediction.
func (b *Booster) BaseScore() float32 { return b.baseScore }

// NumFeature returns the input width.
func (b *Booster) NumFeature() int { return b.numFeature }

// NumTrees returns the ensemble size.
func (b *Booster) NumTrees() int { return len(b.trees) }

// FeatureNames returns the declared column names, or nil when the artifact has none.
func (b *Booster) FeatureNames() []string { return slices.Clone(b.featureNames) }

// Trees returns a deep copy of the ensemble.
func (b *Booster) Trees() []Tree {
	out := make([]Tree, len(b.trees))
	for i, t := range b.trees {
		out[i] = Tree{Nodes: slices.Clone(t.Nodes)}
	}
	return out
}

// CheckSpec verifies that the booster's declared inputs match spec.
func (b *Booster) CheckSpec(spec domain.FeatureSpec) error {
	if len(b.featureNames) > 0 {
		return spec.CheckColumns(b.featureNames)
	}
	return spec.CheckWidth(b.numFeature)
}

// Predict scores each row. A row whose width differs from NumFeature is a
// domain.ErrFeatureMismatch.
func (b *Booster) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != b.numFeature {
			return nil, fmt.Errorf("%w: row %d has %d columns, model expects %d",
				domain.ErrFeatureMismatch, i, len(row), b.numFeature)
		}
		sum := b.baseScore
		for j := range b.trees {
			sum += b.trees[j].leaf(row)
		}
		out[i] = float64(sum)
	}
	return out, nil
}

// leaf walks the tree for row. Each value is narrowed to float32 before it is
// compared, and a NaN follows the node's default direction.
func (t *Tree) leaf(row []float64) float32 {
	idx := 0
	for {
		n := &t.Nodes[idx]
		if n.IsLeaf() {
			return n.Value
		}
		v := float32(row[n.Feature])
		switch {
		case math.IsNaN(float64(v)):
			if n.DefaultLeft {
				idx = n.Left
			} else {
				idx = n.Right
			}
		case v < n.Threshold:
			idx = n.Left
		default:
			idx = n.Right
		}
	}
}
