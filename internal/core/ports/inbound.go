package ports

import (
	"context"
	"io"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

// Screener is the inbound contract for the upload-validate-predict-report flow.
type Screener interface {
	Screen(ctx context.Context, filename string, body io.Reader) (*domain.Screening, error)
	Manifest(ctx context.Context) (domain.FeatureManifest, error)
	ModelVersion() string
}

// ResultReader serves finished screenings for download.
type ResultReader interface {
	Result(ctx context.Context, runID string) (*domain.Screening, error)
}

// ScreeningAuditReader is the read model for persisted audit records.
type ScreeningAuditReader interface {
	GetByID(ctx context.Context, runID string) (*domain.ScreeningEvent, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ScreeningEvent, error)
}

// ScreeningRecorder stores audit events delivered to the worker.
type ScreeningRecorder interface {
	Record(ctx context.Context, event domain.ScreeningEvent) error
}
