package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
)

// AuditUseCase persists screening events and serves them back.
type AuditUseCase struct {
	repo ports.ScreeningRepository
}

func NewAuditUseCase(repo ports.ScreeningRepository) *AuditUseCase {
	return &AuditUseCase{repo: repo}
}

func (uc *AuditUseCase) Record(ctx context.Context, event domain.ScreeningEvent) error {
	if strings.TrimSpace(event.RunID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record screening", errors.New("run_id is required"))
	}
	if !event.State.Terminal() {
		return domain.WrapError(domain.ErrInvalidInput, "record screening", fmt.Errorf("state %q is not terminal", event.State))
	}
	if err := uc.repo.Save(ctx, event); err != nil {
		return fmt.Errorf("record screening %s: %w", event.RunID, err)
	}
	slog.Info("screening_recorded", "run_id", event.RunID, "state", string(event.State), "rows", event.Rows)
	return nil
}

func (uc *AuditUseCase) GetByID(ctx context.Context, runID string) (*domain.ScreeningEvent, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get screening", errors.New("run_id is required"))
	}
	return uc.repo.GetByID(ctx, runID)
}

func (uc *AuditUseCase) ListRecent(ctx context.Context, limit int) ([]domain.ScreeningEvent, error) {
	return uc.repo.ListRecent(ctx, limit)
}
