package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"RecordSync/internal/config"
	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/directory"
	"RecordSync/internal/infrastructure/storage"
	"RecordSync/internal/infrastructure/submission"
	"RecordSync/internal/infrastructure/tabular"
	"RecordSync/internal/infrastructure/telegram"
	"RecordSync/internal/jobstate"
	"RecordSync/internal/logging"
	"RecordSync/internal/lookup"
	"RecordSync/internal/ports"
	"RecordSync/internal/report"
	"RecordSync/internal/usecase"
)

// Options carries the operator-facing collaborators the CLI provides.
type Options struct {
	Reviewer ports.Reviewer
	Preview  io.Writer
	Clock    func() time.Time
}

// Application wires configs to use cases.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	now        func() time.Time
	tracker    *jobstate.Tracker
	lookup     *usecase.LookupBatch
	submission *usecase.Submission
	extraction *usecase.Extraction
	closeStore func() error
}

// New builds the application. The job-log backend is opened here and released by Close.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	repo, locker, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := lookup.NewRegistry()
	registry.Register(directory.NewWamSearcher(&http.Client{Timeout: cfg.Directory.Timeout}, directory.WamOptions{
		SearchURL:  cfg.Directory.SearchURL,
		QueryParam: cfg.Directory.QueryParam,
		UserAgent:  cfg.Directory.UserAgent,
		Interval:   cfg.Directory.RequestInterval,
	}))
	source := directory.NewStrategySource(registry, cfg.Directory, baseLogger.With("component", "directory"))

	tracker := jobstate.NewTracker(jobstate.Deps{
		Repository: repo,
		Clock:      now,
		Logger:     baseLogger.With("component", "jobstate"),
	})

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Configured() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	var driver ports.SubmissionDriver
	if cfg.Submission.DryRunEnabled() {
		driver = submission.NewDryRunDriver(baseLogger.With("component", "submission.dryrun"))
	} else {
		baseLogger.Warn("submission.dryRun is off but no browser driver is linked; submit will refuse to run")
	}

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		now:     now,
		tracker: tracker,
		lookup: usecase.NewLookupBatch(usecase.LookupDeps{
			Source:   source,
			Tracker:  tracker,
			Locker:   locker,
			Notifier: notifier,
			Logger:   baseLogger.With("component", "lookup"),
			Clock:    now,
		}),
		submission: usecase.NewSubmission(usecase.SubmissionDeps{
			DataDir:  cfg.Paths.DataDir,
			Driver:   driver,
			Reviewer: opts.Reviewer,
			Preview:  opts.Preview,
			Logger:   baseLogger.With("component", "submission"),
			Clock:    now,
		}),
		extraction: usecase.NewExtraction(cfg.Paths.DataDir, baseLogger.With("component", "extraction"), now),
		closeStore: closeStore,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (ports.JobLogRepository, ports.Locker, func() error, error) {
	switch cfg.State.Driver {
	case "", "file":
		store := storage.NewFileStore(cfg.ResultPath())
		return store, store, func() error { return nil }, nil
	case storage.DriverSQLite, storage.DriverPostgres:
		dsn := cfg.State.DSN
		if dsn == "" && cfg.State.Driver == storage.DriverSQLite {
			dsn = filepath.Join(cfg.Paths.DataDir, "recordsync.db")
		}
		if dsn == "" {
			return nil, nil, nil, fmt.Errorf("state.dsn is required for the %s driver", cfg.State.Driver)
		}
		store, err := storage.OpenSQLStore(ctx, cfg.State.Driver, dsn, cfg.State.JobName)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open job log store: %w", err)
		}
		return store, store, store.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown state driver %q (want file, sqlite or postgres)", cfg.State.Driver)
	}
}

// Close releases the job-log backend.
func (a *Application) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

// Lookup reads the input table and runs the lookup batch over it.
func (a *Application) Lookup(ctx context.Context, inputPath string) (usecase.LookupSummary, error) {
	if inputPath == "" {
		inputPath = a.cfg.Paths.Input
	}
	records, err := tabular.ReadInputFile(inputPath)
	if err != nil {
		return usecase.LookupSummary{}, err
	}
	a.logger.Info("input table loaded", "path", inputPath, "records", len(records))
	return a.lookup.Run(ctx, records)
}

// Export writes the job log to path, or to the dated default under the data directory.
func (a *Application) Export(ctx context.Context, path string) (string, report.ExportSummary, error) {
	log, err := a.tracker.Load(ctx)
	if err != nil {
		return "", report.ExportSummary{}, err
	}
	if path == "" {
		path = report.DefaultExportPath(a.cfg.Paths.DataDir, a.now())
	}
	summary, err := report.Export(path, log)
	if err != nil {
		return path, summary, err
	}
	a.logger.Info("results exported",
		"path", path,
		"exported", summary.Exported,
		"found", summary.Found,
		"not_found", summary.NotFound,
		"skipped_errors", summary.Skipped)
	return path, summary, nil
}

// Stats prints the job counters.
func (a *Application) Stats(ctx context.Context, w io.Writer) error {
	log, err := a.tracker.Load(ctx)
	if err != nil {
		return err
	}
	report.RenderStats(w, report.Summarize(log))
	return nil
}

// Failed writes the inputs whose lookup failed as an input table, ready to be looked up again
// once removed from the job log.
func (a *Application) Failed(ctx context.Context, w io.Writer) (int, error) {
	log, err := a.tracker.Load(ctx)
	if err != nil {
		return 0, err
	}
	failed := jobstate.FailedInputs(log)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"事業所名", "住所"}); err != nil {
		return 0, err
	}
	for _, rec := range failed {
		if err := cw.Write([]string{rec.Name, rec.Address}); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(failed), cw.Error()
}

// Extract turns saved grid pages into extraction documents.
func (a *Application) Extract(ctx context.Context, date string, dataType domain.DataType, src usecase.ExtractSources) (usecase.ExtractResult, error) {
	return a.extraction.Extract(ctx, date, dataType, src)
}

// Prepare writes the submission documents of date.
func (a *Application) Prepare(ctx context.Context, date string, dataType domain.DataType) (usecase.PrepareResult, error) {
	return a.submission.Prepare(ctx, date, dataType)
}

// Submit submits a prepared document; an empty path selects the document of date and type.
func (a *Application) Submit(ctx context.Context, date string, dataType domain.DataType, path string) (usecase.SubmitResult, error) {
	if path == "" {
		path = submission.DocumentPath(a.cfg.Paths.DataDir, dataType, date)
	}
	return a.submission.Submit(ctx, path)
}

// Sync prepares and, after review, submits the records of date.
func (a *Application) Sync(ctx context.Context, date string, dataType domain.DataType) (usecase.PrepareResult, usecase.SubmitResult, error) {
	return a.submission.Sync(ctx, date, dataType)
}
