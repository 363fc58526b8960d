package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
)

type classifierFake struct {
	outputs []float64
	err     error
	calls   int
	seen    *mat.Dense
}

func (f *classifierFake) Predict(_ context.Context, features mat.Matrix) ([]float64, error) {
	f.calls++
	f.seen = mat.DenseCopyOf(features)
	if f.err != nil {
		return nil, f.err
	}
	return f.outputs, nil
}

type loaderFake struct {
	classifier ports.Classifier
	manifest   domain.FeatureManifest
	err        error
}

func (f *loaderFake) Load(context.Context) (ports.Classifier, domain.FeatureManifest, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.classifier, f.manifest, nil
}

func (f *loaderFake) ModelVersion() string { return "test-model" }

// commaDecoderFake splits lines on commas without quoting support.
type commaDecoderFake struct{}

func (commaDecoderFake) Decode(_ context.Context, r io.Reader) (*domain.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, &domain.InputError{Reason: "upload is empty"}
	}
	table := &domain.Table{Columns: strings.Split(lines[0], ",")}
	for _, line := range lines[1:] {
		table.Rows = append(table.Rows, strings.Split(line, ","))
	}
	return table, nil
}

type resultStoreFake struct {
	items map[string]*domain.Screening
}

func (f *resultStoreFake) Put(s *domain.Screening) {
	if f.items == nil {
		f.items = map[string]*domain.Screening{}
	}
	f.items[s.RunID] = s
}

func (f *resultStoreFake) Get(runID string) (*domain.Screening, bool) {
	s, ok := f.items[runID]
	return s, ok
}

type publisherFake struct {
	events []domain.ScreeningEvent
	err    error
}

func (f *publisherFake) PublishScreeningCompleted(_ context.Context, event domain.ScreeningEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

var errClassifierBoom = errors.New("boom")

func tableOf(columns []string, rows ...[]string) *domain.Table {
	return &domain.Table{Columns: columns, Rows: rows}
}
