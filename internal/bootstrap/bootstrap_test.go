package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

func shippedConfig() config.Config {
	return config.Config{
		ArtifactDir:      filepath.Join("..", "..", "artifacts"),
		ModelFile:        "rf_parkinsons_v1.json",
		FeaturesFile:     "selected_features.json",
		ResultCacheSize:  4,
		ResultTTLSeconds: 60,
	}
}

func TestNewScreenerClassifiesSampleWithShippedArtifacts(t *testing.T) {
	screener, err := NewScreener(context.Background(), shippedConfig())
	if err != nil {
		t.Fatalf("NewScreener() error = %v", err)
	}

	sample, err := os.Open(filepath.Join("..", "..", "testdata", "voices_sample.csv"))
	if err != nil {
		t.Fatalf("open sample: %v", err)
	}
	defer sample.Close()

	screening, err := screener.Screen(context.Background(), "voices_sample.csv", sample)
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	if screening.State != domain.StateReported {
		t.Fatalf("expected reported, got %s (%s)", screening.State, screening.Error)
	}
	want := []domain.Label{domain.LabelParkinsons, domain.LabelHealthy, domain.LabelParkinsons}
	if diff := cmp.Diff(want, screening.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if len(screening.ModelVersion) != 12 {
		t.Fatalf("expected 12-char model version, got %q", screening.ModelVersion)
	}

	if _, err := screener.Result(context.Background(), screening.RunID); err != nil {
		t.Fatalf("result should be held for download: %v", err)
	}
}

func TestNewScreenerFailsWithoutArtifacts(t *testing.T) {
	cfg := shippedConfig()
	cfg.ArtifactDir = t.TempDir()

	_, err := NewScreener(context.Background(), cfg)
	if !domain.IsKind(err, domain.ErrArtifactLoad) {
		t.Fatalf("expected artifact load error, got %v", err)
	}
}

func TestNewScreenerFailsForMissingDirectory(t *testing.T) {
	cfg := shippedConfig()
	cfg.ArtifactDir = filepath.Join(t.TempDir(), "absent")

	if _, err := NewScreener(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for missing artifact dir")
	}
}

func TestNewWorkerRequiresAuditBackends(t *testing.T) {
	if _, err := NewWorker(context.Background(), config.Config{NATSURL: "nats://localhost:4222"}); err == nil {
		t.Fatalf("expected error without POSTGRES_DSN")
	}
}

func TestEncodersOfferCSVAndXLSX(t *testing.T) {
	var got []string
	for _, enc := range Encoders() {
		got = append(got, enc.Extension())
	}
	if diff := cmp.Diff([]string{".csv", ".xlsx"}, got); diff != "" {
		t.Fatalf("encoders mismatch (-want +got):\n%s", diff)
	}
}
