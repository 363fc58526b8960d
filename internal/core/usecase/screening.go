package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
)

const genericPredictionMessage = "The classifier could not process the uploaded values."

type ScreeningUseCase struct {
	loader    ports.ArtifactLoader
	decoder   ports.TableDecoder
	results   ports.ResultStore
	publisher ports.ScreeningPublisher
	now       func() time.Time
}

func NewScreeningUseCase(
	loader ports.ArtifactLoader,
	decoder ports.TableDecoder,
	results ports.ResultStore,
	publisher ports.ScreeningPublisher,
) *ScreeningUseCase {
	return &ScreeningUseCase{
		loader:    loader,
		decoder:   decoder,
		results:   results,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ScreeningUseCase) Manifest(ctx context.Context) (domain.FeatureManifest, error) {
	_, manifest, err := uc.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

func (uc *ScreeningUseCase) ModelVersion() string {
	return uc.loader.ModelVersion()
}

// Screen drives one uploaded file through validation, prediction and reporting.
// Missing columns, unparseable uploads and prediction failures end in a terminal
// state of the returned Screening; only artifact and context errors are returned.
func (uc *ScreeningUseCase) Screen(ctx context.Context, filename string, body io.Reader) (*domain.Screening, error) {
	classifier, manifest, err := uc.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	flow := NewFlow()
	screening := &domain.Screening{
		RunID:        uuid.NewString(),
		Filename:     sanitizeFilename(filename),
		State:        flow.State(),
		ModelVersion: uc.loader.ModelVersion(),
		StartedAt:    uc.now(),
	}

	if err := uc.advance(flow, screening, domain.StateFileReceived); err != nil {
		return nil, err
	}

	table, err := uc.decoder.Decode(ctx, body)
	if err != nil {
		return uc.fail(ctx, flow, screening, domain.StateValidationFailed, err)
	}
	screening.Upload = table
	screening.Rows = table.Len()

	if missing := Validate(table, manifest); len(missing) > 0 {
		screening.Missing = missing
		return uc.fail(ctx, flow, screening, domain.StateValidationFailed, &domain.MissingColumnsError{Missing: missing})
	}
	if err := uc.advance(flow, screening, domain.StateValidated); err != nil {
		return nil, err
	}

	labels, err := Predict(ctx, classifier, table, manifest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return uc.fail(ctx, flow, screening, domain.StatePredictionFailed, err)
	}
	if err := uc.advance(flow, screening, domain.StatePredicted); err != nil {
		return nil, err
	}

	summary := Summarize(labels)
	banner := BannerFor(summary)
	screening.Labels = labels
	screening.Summary = summary
	screening.Banner = &banner
	screening.Augmented = Render(table, labels)

	if err := uc.advance(flow, screening, domain.StateReported); err != nil {
		return nil, err
	}
	screening.FinishedAt = uc.now()

	if uc.results != nil {
		uc.results.Put(screening)
	}
	uc.publish(ctx, screening)

	slog.Info("screening_reported",
		"run_id", screening.RunID,
		"rows", screening.Rows,
		"parkinsons", summary.Parkinsons,
		"healthy", summary.Healthy,
		"duration_ms", float64(screening.Duration().Microseconds())/1000.0,
	)
	return screening, nil
}

// Result returns a reported screening that is still held for download.
func (uc *ScreeningUseCase) Result(_ context.Context, runID string) (*domain.Screening, error) {
	if uc.results == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get result", fmt.Errorf("run_id=%s", runID))
	}
	screening, ok := uc.results.Get(runID)
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get result", fmt.Errorf("run_id=%s", runID))
	}
	return screening, nil
}

func (uc *ScreeningUseCase) advance(flow *Flow, screening *domain.Screening, next domain.FlowState) error {
	if err := flow.Advance(next); err != nil {
		return err
	}
	screening.State = flow.State()
	return nil
}

func (uc *ScreeningUseCase) fail(
	ctx context.Context,
	flow *Flow,
	screening *domain.Screening,
	state domain.FlowState,
	cause error,
) (*domain.Screening, error) {
	if err := uc.advance(flow, screening, state); err != nil {
		return nil, err
	}
	screening.Err = cause
	screening.Error = userMessage(cause)
	screening.FinishedAt = uc.now()

	uc.publish(ctx, screening)

	slog.Warn("screening_failed",
		"run_id", screening.RunID,
		"state", string(screening.State),
		"rows", screening.Rows,
		"error", cause,
	)
	return screening, nil
}

func (uc *ScreeningUseCase) publish(ctx context.Context, screening *domain.Screening) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishScreeningCompleted(ctx, screening.Event()); err != nil {
		slog.Warn("screening_audit_publish_failed", "run_id", screening.RunID, "error", err)
	}
}

func userMessage(err error) string {
	var missing *domain.MissingColumnsError
	if errors.As(err, &missing) {
		return fmt.Sprintf("Missing required columns: %s", strings.Join(missing.Missing, ", "))
	}

	var cell *domain.CellError
	if errors.As(err, &cell) {
		return fmt.Sprintf("%s (%s)", genericPredictionMessage, cell.Error())
	}
	if domain.IsKind(err, domain.ErrPrediction) {
		if errors.Is(err, errNoRows) {
			return fmt.Sprintf("%s (%s)", genericPredictionMessage, errNoRows)
		}
		return genericPredictionMessage
	}
	var input *domain.InputError
	if errors.As(err, &input) {
		return fmt.Sprintf("The uploaded file could not be read as CSV: %s", input.Error())
	}
	return err.Error()
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." || base == "/" {
		return "upload.csv"
	}
	return base
}
