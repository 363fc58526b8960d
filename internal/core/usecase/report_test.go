package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

func TestSummarizeCountsEveryLabel(t *testing.T) {
	labels := []domain.Label{domain.LabelParkinsons, domain.LabelHealthy, domain.LabelParkinsons}
	summary := Summarize(labels)
	if summary.Parkinsons != 2 || summary.Healthy != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Total() != len(labels) {
		t.Fatalf("summary total %d != %d labels", summary.Total(), len(labels))
	}
	if got := Summarize(nil); got.Total() != 0 {
		t.Fatalf("expected empty summary, got %+v", got)
	}
}

func TestRenderAppendsPredictionColumn(t *testing.T) {
	table := tableOf([]string{"A", "B"}, []string{"1", "2"}, []string{"3", "4"})
	out := Render(table, []domain.Label{domain.LabelParkinsons, domain.LabelHealthy})

	want := &domain.Table{
		Columns: []string{"A", "B", "Prediction"},
		Rows:    [][]string{{"1", "2", "Parkinson's"}, {"3", "4", "Healthy"}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("augmented table mismatch (-want +got):\n%s", diff)
	}
	if len(table.Columns) != 2 || len(table.Rows[0]) != 2 {
		t.Fatalf("render must not modify the upload: %+v", table)
	}
}

func TestRenderOverwritesExistingPredictionColumn(t *testing.T) {
	table := tableOf([]string{"Prediction", "A"}, []string{"old", "1"})
	out := Render(table, []domain.Label{domain.LabelHealthy})

	want := &domain.Table{
		Columns: []string{"Prediction", "A"},
		Rows:    [][]string{{"Healthy", "1"}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("augmented table mismatch (-want +got):\n%s", diff)
	}
}

func TestBannerForSummary(t *testing.T) {
	if got := BannerFor(domain.Summary{Parkinsons: 1, Healthy: 4}); got.Kind != domain.BannerWarning {
		t.Fatalf("expected warning banner, got %+v", got)
	}
	got := BannerFor(domain.Summary{Healthy: 3})
	if got.Kind != domain.BannerSuccess || got.Message != successMessage {
		t.Fatalf("expected success banner, got %+v", got)
	}
}
