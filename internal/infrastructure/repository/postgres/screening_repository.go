package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/resilience"
)

const (
	schemaLockKey    int64 = 2026101801
	defaultListLimit       = 50
	maxListLimit           = 500
)

type ScreeningRepository struct {
	db       *sql.DB
	executor *resilience.Executor
}

func NewScreeningRepository(db *sql.DB) *ScreeningRepository {
	return &ScreeningRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ScreeningRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS screening_runs (
	run_id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	state TEXT NOT NULL,
	row_count INTEGER NOT NULL DEFAULT 0,
	parkinsons_count INTEGER NOT NULL DEFAULT 0,
	healthy_count INTEGER NOT NULL DEFAULT 0,
	missing_columns JSONB NOT NULL DEFAULT '[]'::jsonb,
	error_message TEXT NOT NULL DEFAULT '',
	model_version TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_screening_runs_state ON screening_runs(state);
CREATE INDEX IF NOT EXISTS idx_screening_runs_started_at ON screening_runs(started_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save is idempotent per run ID so redelivered events are harmless.
func (r *ScreeningRepository) Save(ctx context.Context, event domain.ScreeningEvent) error {
	missing := event.Missing
	if missing == nil {
		missing = []string{}
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return fmt.Errorf("marshal missing columns: %w", err)
	}

	return r.execute(ctx, "postgres.save_screening", func(ctx context.Context) error {
		return r.insert(ctx, event, missingJSON)
	})
}

func (r *ScreeningRepository) insert(ctx context.Context, event domain.ScreeningEvent, missingJSON []byte) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO screening_runs (
	run_id, filename, state, row_count, parkinsons_count, healthy_count, missing_columns,
	error_message, model_version, started_at, finished_at, duration_ms
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (run_id) DO NOTHING
`,
		event.RunID, event.Filename, string(event.State), event.Rows, event.ParkinsonsCount, event.HealthyCount,
		missingJSON, event.Error, event.ModelVersion, event.StartedAt, event.FinishedAt, event.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert screening run: %w", err)
	}
	return nil
}

const selectColumns = `
SELECT run_id, filename, state, row_count, parkinsons_count, healthy_count, missing_columns,
	error_message, model_version, started_at, finished_at, duration_ms
FROM screening_runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (domain.ScreeningEvent, error) {
	var event domain.ScreeningEvent
	var state string
	var missingRaw []byte
	err := row.Scan(
		&event.RunID, &event.Filename, &state, &event.Rows, &event.ParkinsonsCount, &event.HealthyCount,
		&missingRaw, &event.Error, &event.ModelVersion, &event.StartedAt, &event.FinishedAt, &event.DurationMS,
	)
	if err != nil {
		return domain.ScreeningEvent{}, err
	}
	if err := json.Unmarshal(missingRaw, &event.Missing); err != nil {
		return domain.ScreeningEvent{}, fmt.Errorf("unmarshal missing columns: %w", err)
	}
	if event.Missing == nil {
		event.Missing = []string{}
	}
	event.State = domain.FlowState(state)
	return event, nil
}

func (r *ScreeningRepository) GetByID(ctx context.Context, runID string) (*domain.ScreeningEvent, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+`
WHERE run_id = $1
`, runID)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get screening run", fmt.Errorf("run %s", runID))
		}
		return nil, fmt.Errorf("scan screening run: %w", err)
	}
	return &event, nil
}

func (r *ScreeningRepository) ListRecent(ctx context.Context, limit int) ([]domain.ScreeningEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := r.db.QueryContext(ctx, selectColumns+`
ORDER BY started_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list screening runs: %w", err)
	}
	defer rows.Close()

	events := make([]domain.ScreeningEvent, 0, limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan screening run: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screening runs: %w", err)
	}
	return events, nil
}
