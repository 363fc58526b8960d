// Package forest evaluates tree ensembles exported to the forest/v1 JSON format.
package forest

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	FormatV1 = "forest/v1"

	KindRandomForest = "random_forest"
	KindDecisionTree = "decision_tree"
)

// Node is one split or leaf. Children are indexes into the owning tree's node list.
type Node struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	ClassLabel float64   `json:"class_label"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

type Forest struct {
	Format    string    `json:"format"`
	Kind      string    `json:"kind"`
	NFeatures int       `json:"n_features"`
	Classes   []float64 `json:"classes"`
	Trees     []Tree    `json:"trees"`

	// leafDist holds the normalized class distribution of every leaf, per tree.
	leafDist [][][]float64
}

// NumFeatures is the declared input width, or 0 when the export does not declare one.
func (f *Forest) NumFeatures() int {
	return f.NFeatures
}

// Predict returns the predicted class value for every row of features.
// Trees vote with their leaf class distributions; the mean distribution's
// arg-max wins and ties go to the earlier class.
func (f *Forest) Predict(ctx context.Context, features mat.Matrix) ([]float64, error) {
	if f.leafDist == nil {
		return nil, errors.New("forest: model not initialized")
	}
	rows, cols := features.Dims()
	if f.NFeatures > 0 && cols != f.NFeatures {
		return nil, fmt.Errorf("forest: got %d features, model expects %d", cols, f.NFeatures)
	}

	out := make([]float64, rows)
	row := make([]float64, cols)
	votes := make([]float64, len(f.Classes))
	for i := 0; i < rows; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		mat.Row(row, i, features)
		for k := range votes {
			votes[k] = 0
		}
		for t := range f.Trees {
			leaf, err := f.walk(t, row)
			if err != nil {
				return nil, fmt.Errorf("forest: row %d tree %d: %w", i, t, err)
			}
			floats.Add(votes, f.leafDist[t][leaf])
		}
		out[i] = f.Classes[floats.MaxIdx(votes)]
	}
	return out, nil
}

func (f *Forest) walk(treeIdx int, row []float64) (int, error) {
	nodes := f.Trees[treeIdx].Nodes
	idx := 0
	for steps := 0; steps <= len(nodes); steps++ {
		node := nodes[idx]
		if node.IsLeaf {
			return idx, nil
		}
		if node.FeatureIdx >= len(row) {
			return 0, errors.New("feature index out of range")
		}
		if row[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return 0, errors.New("invalid tree state")
}
