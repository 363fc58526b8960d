package ports

import (
	"context"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

// Classifier is the pre-trained model. It returns one raw output per matrix row.
type Classifier interface {
	Predict(ctx context.Context, features mat.Matrix) ([]float64, error)
}

// ArtifactLoader provides the classifier and its feature manifest.
// Implementations read storage at most once per process.
type ArtifactLoader interface {
	Load(ctx context.Context) (Classifier, domain.FeatureManifest, error)
	ModelVersion() string
}

// ObjectStorage reads and writes named blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TableDecoder parses an uploaded file into a table.
type TableDecoder interface {
	Decode(ctx context.Context, r io.Reader) (*domain.Table, error)
}

// TableEncoder serializes an augmented table for download.
type TableEncoder interface {
	Encode(w io.Writer, table *domain.Table) error
	ContentType() string
	Extension() string
}

// ResultStore keeps finished screenings long enough to serve downloads.
type ResultStore interface {
	Put(screening *domain.Screening)
	Get(runID string) (*domain.Screening, bool)
}

// ScreeningPublisher emits audit events for finished screenings.
type ScreeningPublisher interface {
	PublishScreeningCompleted(ctx context.Context, event domain.ScreeningEvent) error
}

// ScreeningSubscriber consumes audit events.
type ScreeningSubscriber interface {
	SubscribeScreeningCompleted(ctx context.Context, handler func(context.Context, domain.ScreeningEvent) error) error
}

// ScreeningRepository persists audit records.
type ScreeningRepository interface {
	Save(ctx context.Context, event domain.ScreeningEvent) error
	GetByID(ctx context.Context, runID string) (*domain.ScreeningEvent, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ScreeningEvent, error)
}
