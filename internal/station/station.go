package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"qrprint/internal/config"
	"qrprint/internal/dispatch"
	"qrprint/internal/history"
	"qrprint/internal/logging"
	"qrprint/internal/preflight"
)

// ErrLocked reports that another session holds the station lock.
var ErrLocked = errors.New("another qrprint session is already running")

// cancelGrace bounds the wait for cancelled jobs to write their final status.
const cancelGrace = 5 * time.Second

// Station owns the long-lived components of one qrprint process.
type Station struct {
	cfg        *config.Config
	printers   *config.PrinterConfig
	store      *history.Store
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	started   bool
	closeOnce sync.Once
	closeErr  error
}

// Option customizes station construction.
type Option func(*options)

type options struct {
	dispatch []dispatch.Option
}

// WithDispatchOptions forwards options to the dispatcher.
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(o *options) {
		o.dispatch = append(o.dispatch, opts...)
	}
}

// Open loads printer classes, prunes old logs, and opens the history store.
// The station lock is not taken until Start.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Station, error) {
	if cfg == nil {
		return nil, errors.New("station requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: logging.LogFilePattern,
		Exclude: []string{logging.LogFilePath(cfg)},
	})

	printers, err := config.LoadPrinters(cfg.Paths.PrinterConfig)
	if err != nil {
		return nil, fmt.Errorf("load printer config: %w", err)
	}

	store, err := history.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	lockPath := cfg.LockPath()
	s := &Station{
		cfg:        cfg,
		printers:   printers,
		store:      store,
		dispatcher: dispatch.New(cfg, printers, store, logger, o.dispatch...),
		logger:     logging.NewComponentLogger(logger, "station"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}

	for _, result := range preflight.Failed(preflight.CheckDirectories(cfg)) {
		logging.WarnWithContext(s.logger, "directory check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run qrprint check"),
		)
	}
	return s, nil
}

// Config returns the application configuration.
func (s *Station) Config() *config.Config { return s.cfg }

// Printers returns the printer-class document.
func (s *Station) Printers() *config.PrinterConfig { return s.printers }

// Store returns the history store.
func (s *Station) Store() *history.Store { return s.store }

// Dispatcher returns the job dispatcher.
func (s *Station) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

// LockPath returns the lock file location.
func (s *Station) LockPath() string { return s.lockPath }

// Start acquires the station lock and finalizes records a crashed session
// left processing.
func (s *Station) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("station already started")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}

	reset, err := s.store.ResetStale(ctx)
	if err != nil {
		_ = s.lock.Unlock()
		return err
	}
	if reset > 0 {
		logging.WarnWithContext(s.logger, "finalized stale print jobs", "stale_jobs_reset",
			logging.Int64("count", reset),
			logging.String(logging.FieldImpact, "interrupted jobs were marked as errors"),
		)
	}

	s.started = true
	s.logger.Info("station started",
		logging.String("lock", s.lockPath),
		logging.String("database", s.store.Path()),
		logging.Int("classes", len(s.printers.ClassIDs())),
	)
	return nil
}

// Close waits for running jobs until ctx ends, cancels the rest, stops the
// persistence worker, and releases the lock. Later calls return the first
// result.
func (s *Station) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.shutdown(ctx)
	})
	return s.closeErr
}

func (s *Station) shutdown(ctx context.Context) error {
	if err := s.dispatcher.Wait(ctx); err != nil {
		s.logger.Warn("cancelling unfinished print jobs", logging.Error(err))
	}
	s.dispatcher.Close()

	graceCtx, cancel := context.WithTimeout(context.Background(), cancelGrace)
	defer cancel()
	if err := s.dispatcher.Wait(graceCtx); err != nil {
		s.logger.Warn("print jobs still running at shutdown", logging.Error(err))
	}

	var errs []error
	if err := s.store.Close(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("close history: %w", err))
	}

	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if started {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
		s.logger.Info("station stopped")
	}
	return errors.Join(errs...)
}
