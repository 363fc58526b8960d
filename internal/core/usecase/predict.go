package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
)

var errNoRows = errors.New("no data rows to classify")

// Predict runs the classifier over table and returns one label per row, in row order.
func Predict(
	ctx context.Context,
	classifier ports.Classifier,
	table *domain.Table,
	manifest domain.FeatureManifest,
) ([]domain.Label, error) {
	if table.Len() == 0 {
		return nil, domain.WrapError(domain.ErrPrediction, "predict", errNoRows)
	}

	features, err := FeatureMatrix(table, manifest)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPrediction, "build feature matrix", err)
	}

	raw, err := classifier.Predict(ctx, features)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPrediction, "classifier predict", err)
	}
	if len(raw) != table.Len() {
		return nil, domain.WrapError(
			domain.ErrPrediction,
			"classifier predict",
			fmt.Errorf("got %d outputs for %d rows", len(raw), table.Len()),
		)
	}

	labels := make([]domain.Label, len(raw))
	for i, value := range raw {
		labels[i] = domain.LabelFor(value)
	}
	return labels, nil
}

// FeatureMatrix selects the manifest columns in manifest order and parses them into a row-major matrix.
func FeatureMatrix(table *domain.Table, manifest domain.FeatureManifest) (*mat.Dense, error) {
	if table.Len() == 0 {
		return nil, errNoRows
	}
	if len(manifest) == 0 {
		return nil, errors.New("feature manifest is empty")
	}

	indexes := make([]int, len(manifest))
	for j, feature := range manifest {
		idx, ok := table.ColumnIndex(feature)
		if !ok {
			return nil, &domain.MissingColumnsError{Missing: []string{feature}}
		}
		indexes[j] = idx
	}

	cols := len(manifest)
	data := make([]float64, table.Len()*cols)
	for i, row := range table.Rows {
		for j, idx := range indexes {
			value, err := parseCell(row[idx])
			if err != nil {
				return nil, &domain.CellError{Row: i + 1, Column: manifest[j], Value: row[idx]}
			}
			data[i*cols+j] = value
		}
	}
	return mat.NewDense(table.Len(), cols, data), nil
}

func parseCell(cell string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("not a finite number")
	}
	return value, nil
}
