package domain

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestLabelForOnlyExactOneIsParkinsons(t *testing.T) {
	cases := map[float64]Label{
		1:    LabelParkinsons,
		0:    LabelHealthy,
		2:    LabelHealthy,
		0.99: LabelHealthy,
		-1:   LabelHealthy,
	}
	for raw, want := range cases {
		if got := LabelFor(raw); got != want {
			t.Fatalf("LabelFor(%v) = %q, want %q", raw, got, want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	missing := &MissingColumnsError{Missing: []string{"B", "C"}}
	if !IsKind(missing, ErrMissingColumns) {
		t.Fatalf("MissingColumnsError must match ErrMissingColumns")
	}
	if missing.Error() != "missing required columns: B, C" {
		t.Fatalf("unexpected message: %s", missing.Error())
	}

	input := &InputError{Reason: "upload is empty", Err: io.EOF}
	if !IsKind(input, ErrInvalidInput) || !errors.Is(input, io.EOF) {
		t.Fatalf("InputError must match ErrInvalidInput and its cause")
	}

	wrapped := WrapError(ErrPrediction, "predict", &CellError{Row: 2, Column: "A", Value: "x"})
	var cell *CellError
	if !IsKind(wrapped, ErrPrediction) || !errors.As(wrapped, &cell) {
		t.Fatalf("wrapped error lost its kind or cause: %v", wrapped)
	}
	if WrapError(ErrPrediction, "predict", nil) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

func TestScreeningEventNeverNilMissing(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &Screening{
		RunID:      "run-1",
		State:      StateReported,
		Rows:       3,
		Summary:    Summary{Parkinsons: 1, Healthy: 2},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Microsecond),
		Upload:     &Table{Columns: []string{"A"}, Rows: [][]string{{"secret"}}},
	}
	event := s.Event()
	if event.Missing == nil {
		t.Fatalf("expected empty, non-nil missing list")
	}
	if event.ParkinsonsCount != 1 || event.HealthyCount != 2 || event.DurationMS != 1.5 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestTableCloneIsDeep(t *testing.T) {
	table := &Table{Columns: []string{"A"}, Rows: [][]string{{"1"}}}
	clone := table.Clone()
	clone.Rows[0][0] = "2"
	clone.Columns[0] = "B"
	if table.Rows[0][0] != "1" || table.Columns[0] != "A" {
		t.Fatalf("clone shares storage with the original")
	}
	if idx, ok := table.ColumnIndex("A"); !ok || idx != 0 {
		t.Fatalf("ColumnIndex(A) = %d, %v", idx, ok)
	}
}
