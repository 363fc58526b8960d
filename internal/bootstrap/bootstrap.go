package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/core/ports"
	"github.com/kirillkom/parkinsons-screening/internal/core/usecase"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/artifact"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/cache/memory"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/queue/nats"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/resilience"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/parkinsons-screening/internal/infrastructure/tabular"
	"github.com/kirillkom/parkinsons-screening/internal/observability/metrics"
)

const (
	apiService    = "screening-api"
	workerService = "screening-worker"
)

// App is the API process: the screening flow plus optional audit plumbing.
type App struct {
	Config config.Config

	Screening *usecase.ScreeningUseCase
	Audit     ports.ScreeningAuditReader
	Encoders  []ports.TableEncoder
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

// Worker is the audit process: NATS in, PostgreSQL out.
type Worker struct {
	Config config.Config

	Subscriber ports.ScreeningSubscriber
	Recorder   ports.ScreeningRecorder
	Metrics    *metrics.WorkerMetrics

	closeFn func()
}

// Encoders lists the download formats every front end offers.
func Encoders() []ports.TableEncoder {
	return []ports.TableEncoder{tabular.CSVEncoder{}, tabular.XLSXEncoder{}}
}

// NewScreener builds the screening flow without any audit trail and loads
// the artifacts eagerly so a broken model fails at startup.
func NewScreener(ctx context.Context, cfg config.Config) (*usecase.ScreeningUseCase, error) {
	loader, err := newLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return usecase.NewScreeningUseCase(loader, tabular.NewCSVDecoder(), newResultCache(cfg), nil), nil
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	loader, err := newLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpMetrics := metrics.NewHTTPServerMetrics(apiService)
	executor := resilience.NewExecutor(resilience.DefaultConfig()).
		WithStateObserver(func(operation string, _, to gobreaker.State) {
			httpMetrics.ObserveBreakerState(apiService, operation, to)
		})

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var publisher ports.ScreeningPublisher
	if cfg.NATSURL != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			Name:               apiService,
			ResilienceExecutor: executor,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init audit publisher: %w", err)
		}
		publisher = queue
		closers = append(closers, queue.Close)
	} else {
		slog.Info("audit_publisher_disabled", "reason", "NATS_URL is empty")
	}

	var audit ports.ScreeningAuditReader
	if cfg.PostgresDSN != "" {
		repo, db, err := openRepository(ctx, cfg, executor)
		if err != nil {
			closeAll()
			return nil, err
		}
		audit = usecase.NewAuditUseCase(repo)
		closers = append(closers, func() { _ = db.Close() })
	}

	screening := usecase.NewScreeningUseCase(loader, tabular.NewCSVDecoder(), newResultCache(cfg), publisher)

	return &App{
		Config:    cfg,
		Screening: screening,
		Audit:     audit,
		Encoders:  Encoders(),
		Metrics:   httpMetrics,
		closeFn:   closeAll,
	}, nil
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	if cfg.NATSURL == "" || cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("audit worker requires NATS_URL and POSTGRES_DSN")
	}

	workerMetrics := metrics.NewWorkerMetrics(workerService)
	executor := resilience.NewExecutor(resilience.DefaultConfig()).
		WithStateObserver(func(operation string, _, to gobreaker.State) {
			workerMetrics.ObserveBreakerState(workerService, operation, to)
		})

	repo, db, err := openRepository(ctx, cfg, executor)
	if err != nil {
		return nil, err
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{Name: workerService})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init audit subscriber: %w", err)
	}

	return &Worker{
		Config:     cfg,
		Subscriber: queue,
		Recorder:   usecase.NewAuditUseCase(repo),
		Metrics:    workerMetrics,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func newLoader(ctx context.Context, cfg config.Config) (*artifact.Loader, error) {
	storage, err := localfs.New(cfg.ArtifactDir, false)
	if err != nil {
		return nil, fmt.Errorf("open artifact dir: %w", err)
	}
	loader := artifact.NewLoader(storage, cfg.ModelFile, cfg.FeaturesFile)
	_, manifest, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("artifacts_loaded",
		"dir", cfg.ArtifactDir,
		"features", len(manifest),
		"model_version", loader.ModelVersion(),
	)
	return loader, nil
}

func newResultCache(cfg config.Config) *memory.ResultCache {
	return memory.NewResultCache(cfg.ResultCacheSize, time.Duration(cfg.ResultTTLSeconds)*time.Second)
}

func openRepository(ctx context.Context, cfg config.Config, executor *resilience.Executor) (*postgres.ScreeningRepository, *sql.DB, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewScreeningRepository(db).WithExecutor(executor)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db, nil
}
