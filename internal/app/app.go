package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"dupscan/internal/config"
	"dupscan/internal/logging"
	"dupscan/internal/report"
	"dupscan/internal/scanner"
	"dupscan/internal/storage"
	"dupscan/internal/storage/sqlite"
)

// ErrScanInProgress is returned when attempting to start a scan while one is already running.
var ErrScanInProgress = errors.New("scan already in progress")

// ErrHistoryDisabled is returned by history lookups when no store is configured.
var ErrHistoryDisabled = errors.New("scan history is disabled")

// RunStore describes the persistence operations required for scan history.
type RunStore interface {
	SaveRun(ctx context.Context, detail storage.RunDetail) error
	ListRuns(ctx context.Context, limit int) ([]storage.Run, error)
	ResolveRunID(ctx context.Context, prefix string) (string, error)
	LoadRun(ctx context.Context, id string) (storage.RunDetail, error)
	DeleteRun(ctx context.Context, id string) error
	Close() error
}

// Status summarizes the current or most recent scan activity.
type Status struct {
	Running    bool      `json:"running"`
	Root       string    `json:"root,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Option customizes an App.
type Option func(*App)

// WithFilesystem scans fsys instead of the host filesystem.
func WithFilesystem(fsys afero.Fs) Option {
	return func(a *App) { a.fs = fsys }
}

// WithStore uses store for scan history instead of opening the configured database.
func WithStore(store RunStore) Option {
	return func(a *App) { a.store = store }
}

// WithObserver receives hashing progress for every scan.
func WithObserver(observer scanner.Observer) Option {
	return func(a *App) { a.observer = observer }
}

// App ties together configuration, the duplicate finder, report output and history.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	fs       afero.Fs
	store    RunStore
	observer scanner.Observer

	statusMu sync.RWMutex
	status   Status
	last     *report.Report

	scanMu     sync.Mutex
	scanCancel context.CancelFunc
}

// New constructs an App using the provided configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app requires a config")
	}

	a := &App{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "app"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.fs == nil {
		a.fs = afero.NewOsFs()
	}

	if a.store == nil && cfg.History.Enabled {
		store, err := sqlite.Open(cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.store = store
	}

	return a, nil
}

// Close releases the history store.
func (a *App) Close() error {
	a.StopScan()
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Scan searches root (or the configured root when empty) for duplicate files,
// writes the configured report file and records the run in history. A report
// is returned alongside a report-file error so callers can still show it.
func (a *App) Scan(ctx context.Context, root string) (*report.Report, error) {
	root = a.resolveRoot(root)
	if !a.begin(root) {
		return nil, ErrScanInProgress
	}
	rep, err := a.scan(ctx, root)
	a.finish(rep, err)
	return rep, err
}

// StartScan triggers a background scan. Only one scan may run at a time.
func (a *App) StartScan(ctx context.Context, root string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	root = a.resolveRoot(root)
	if !a.begin(root) {
		return ErrScanInProgress
	}

	scanCtx, cancel := context.WithCancel(ctx)
	a.scanMu.Lock()
	if a.scanCancel != nil {
		a.scanCancel()
	}
	a.scanCancel = cancel
	a.scanMu.Unlock()

	go func() {
		defer func() {
			a.scanMu.Lock()
			cancel()
			a.scanCancel = nil
			a.scanMu.Unlock()
		}()
		rep, err := a.scan(scanCtx, root)
		if err != nil {
			a.logger.Error("background scan failed", logging.String("root", root), logging.Error(err))
		}
		a.finish(rep, err)
	}()
	return nil
}

// StopScan cancels an in-flight background scan if one is running.
func (a *App) StopScan() {
	a.scanMu.Lock()
	defer a.scanMu.Unlock()
	if a.scanCancel != nil {
		a.scanCancel()
		a.scanCancel = nil
	}
}

// Status returns a snapshot of the current scan status.
func (a *App) Status() Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

// LastReport returns the report of the most recent successful scan in this process.
func (a *App) LastReport() *report.Report {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.last
}

func (a *App) resolveRoot(root string) string {
	if strings.TrimSpace(root) == "" {
		return a.cfg.Scan.Root
	}
	return root
}

func (a *App) begin(root string) bool {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	if a.status.Running {
		return false
	}
	a.status = Status{
		Running:   true,
		Root:      root,
		StartedAt: time.Now(),
		LastRunID: a.status.LastRunID,
	}
	return true
}

func (a *App) finish(rep *report.Report, err error) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.status.Running = false
	a.status.FinishedAt = time.Now()
	a.status.Error = ""
	if err != nil {
		a.status.Error = err.Error()
	}
	if rep != nil {
		a.status.LastRunID = rep.RunID
		a.last = rep
	}
}

func (a *App) scan(ctx context.Context, root string) (*report.Report, error) {
	finder := scanner.New(a.fs, scanner.Options{
		ChunkSize: a.cfg.Scan.ChunkSize,
		Workers:   a.cfg.Scan.Workers,
		Verify:    a.cfg.Scan.Verify,
		Logger:    a.logger,
		Observer:  a.observer,
	})

	started := time.Now()
	result, err := finder.FindDuplicates(ctx, root)
	if err != nil {
		return nil, err
	}

	rep := report.Build(result, started, time.Now())
	rep.RunID = uuid.NewString()

	if a.store != nil {
		if err := a.store.SaveRun(ctx, detailFromReport(rep)); err != nil {
			a.logger.Warn("failed to record scan history",
				logging.String("run_id", rep.RunID),
				logging.Error(err),
			)
		}
	}

	if a.cfg.Report.Write {
		if err := report.WriteFile(a.cfg.Report.Path, a.cfg.Report.Format, rep); err != nil {
			return rep, fmt.Errorf("write report %s: %w", a.cfg.Report.Path, err)
		}
		a.logger.Info("report written", logging.String("path", a.cfg.Report.Path))
	}

	return rep, nil
}
