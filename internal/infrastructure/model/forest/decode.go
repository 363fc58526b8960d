package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/floats"
)

// Decode reads a forest/v1 export and checks that it is safe to evaluate.
func Decode(r io.Reader) (*Forest, error) {
	var f Forest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode forest json: %w", err)
	}
	if err := f.init(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Forest) init() error {
	if f.Format != FormatV1 {
		return fmt.Errorf("unsupported model format %q", f.Format)
	}
	switch f.Kind {
	case KindRandomForest:
		if len(f.Trees) == 0 {
			return errors.New("random forest has no trees")
		}
	case KindDecisionTree:
		if len(f.Trees) != 1 {
			return fmt.Errorf("decision tree must have exactly one tree, got %d", len(f.Trees))
		}
	default:
		return fmt.Errorf("unsupported model kind %q", f.Kind)
	}
	if f.NFeatures < 0 {
		return fmt.Errorf("invalid n_features %d", f.NFeatures)
	}

	classIndex := make(map[float64]int, len(f.Classes))
	for i, c := range f.Classes {
		if _, dup := classIndex[c]; dup {
			return fmt.Errorf("duplicate class %v", c)
		}
		classIndex[c] = i
	}
	if len(classIndex) == 0 {
		return errors.New("model declares no classes")
	}

	f.leafDist = make([][][]float64, len(f.Trees))
	for t, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", t)
		}
		dists := make([][]float64, len(tree.Nodes))
		for i, node := range tree.Nodes {
			if !node.IsLeaf {
				if err := f.checkSplit(t, i, node, len(tree.Nodes)); err != nil {
					return err
				}
				continue
			}
			dist, err := leafDistribution(node, classIndex, len(f.Classes))
			if err != nil {
				return fmt.Errorf("tree %d node %d: %w", t, i, err)
			}
			dists[i] = dist
		}
		f.leafDist[t] = dists
	}
	return nil
}

// checkSplit requires children after their parent, which rules out cycles.
func (f *Forest) checkSplit(t, i int, node Node, size int) error {
	if node.FeatureIdx < 0 || (f.NFeatures > 0 && node.FeatureIdx >= f.NFeatures) {
		return fmt.Errorf("tree %d node %d: feature index %d out of range", t, i, node.FeatureIdx)
	}
	for _, child := range []int{node.LeftChild, node.RightChild} {
		if child <= i || child >= size {
			return fmt.Errorf("tree %d node %d: invalid child index %d", t, i, child)
		}
	}
	return nil
}

func leafDistribution(node Node, classIndex map[float64]int, nClasses int) ([]float64, error) {
	dist := make([]float64, nClasses)
	if len(node.Value) == 0 {
		idx, ok := classIndex[node.ClassLabel]
		if !ok {
			return nil, fmt.Errorf("leaf class %v is not a declared class", node.ClassLabel)
		}
		dist[idx] = 1
		return dist, nil
	}

	if len(node.Value) != nClasses {
		return nil, fmt.Errorf("leaf value has %d entries for %d classes", len(node.Value), nClasses)
	}
	for _, v := range node.Value {
		if v < 0 {
			return nil, errors.New("leaf value has negative weight")
		}
	}
	total := floats.Sum(node.Value)
	if total <= 0 {
		return nil, errors.New("leaf value sums to zero")
	}
	copy(dist, node.Value)
	floats.Scale(1/total, dist)
	return dist, nil
}
