package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"qrprint/internal/config"
	"qrprint/internal/fetch"
	"qrprint/internal/history"
	"qrprint/internal/logging"
	"qrprint/internal/notifications"
	"qrprint/internal/printing"
	"qrprint/internal/services"
)

// Recorder persists job records.
type Recorder interface {
	Create(ctx context.Context, job history.NewJob) (*history.Job, error)
	SetStatus(ctx context.Context, id int64, status history.Status, message string) (int64, error)
	Get(ctx context.Context, id int64) (*history.Job, error)
}

// Fetcher downloads a document to local disk.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Document, error)
}

// Printer hands a local document to the print spooler.
type Printer interface {
	Print(ctx context.Context, job printing.Job) error
}

// Listener observes every job once its terminal status is written.
type Listener func(job *history.Job)

// Dispatcher runs scanned print jobs in the background.
type Dispatcher struct {
	printers *config.PrinterConfig
	store    Recorder
	fetcher  Fetcher
	printer  Printer
	notifier notifications.Service
	listener Listener
	logger   *slog.Logger

	sem    chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(d *Dispatcher) {
		if f != nil {
			d.fetcher = f
		}
	}
}

// WithPrinter replaces the OS spooler.
func WithPrinter(p Printer) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.printer = p
		}
	}
}

// WithNotifier replaces the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(d *Dispatcher) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithListener registers a callback for finished jobs. It runs on the job's
// goroutine.
func WithListener(l Listener) Option {
	return func(d *Dispatcher) {
		d.listener = l
	}
}

// New constructs a dispatcher. Unless overridden, documents are fetched over
// HTTP into cfg.Paths.TempDir and printed with the platform spooler.
func New(cfg *config.Config, printers *config.PrinterConfig, store Recorder, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "dispatch")

	limit := cfg.Dispatch.MaxConcurrentJobs
	if limit <= 0 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		printers: printers,
		store:    store,
		fetcher:  fetch.New(cfg.Paths.TempDir, printers.FetchTimeout(), fetch.WithLogger(logger)),
		printer:  printing.New(printing.WithLogger(logger)),
		notifier: notifications.NewService(cfg),
		logger:   logger,
		sem:      make(chan struct{}, limit),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse validates a payload against the configured printer classes.
func (d *Dispatcher) Parse(raw string) (Scan, error) {
	return Parse(d.printers, raw)
}

// Describe previews a payload without recording it.
func (d *Dispatcher) Describe(raw string) (Preview, error) {
	return Describe(d.printers, raw)
}

// Submit records a scanned payload and starts printing it in the background.
// Invalid payloads return an error and create no record.
func (d *Dispatcher) Submit(ctx context.Context, raw string) (*history.Job, error) {
	scan, err := d.Parse(raw)
	if err != nil {
		return nil, err
	}
	return d.start(ctx, history.NewJob{URL: scan.URL, Class: scan.ClassID, Payload: scan.Raw}, scan.Class)
}

// Reprint dispatches an existing record again as a new job.
func (d *Dispatcher) Reprint(ctx context.Context, id int64) (*history.Job, error) {
	prev, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, fmt.Errorf("%w: %d", ErrJobNotFound, id)
	}
	class, ok := d.printers.Class(prev.Class)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, prev.Class)
	}
	d.logger.Info("reprinting job",
		logging.JobID(prev.ID),
		logging.String(logging.FieldClass, prev.Class),
	)
	return d.start(ctx, history.NewJob{URL: prev.URL, Class: prev.Class, Payload: prev.Payload}, class)
}

func (d *Dispatcher) start(ctx context.Context, req history.NewJob, class config.PrinterClass) (*history.Job, error) {
	// Counted before Create so Wait covers records still being created.
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	job, err := d.store.Create(ctx, req)
	if err != nil {
		d.wg.Done()
		return nil, fmt.Errorf("record print job: %w", err)
	}
	d.logger.Info("print job queued",
		logging.JobID(job.ID),
		logging.String(logging.FieldClass, job.Class),
		logging.String("url", job.URL),
	)

	go d.run(job, class)
	return job, nil
}

// Wait blocks until every background job has finished or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects new submissions and cancels running downloads and prints.
// Cancelled jobs are still finalized.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
}

func (d *Dispatcher) run(job *history.Job, class config.PrinterClass) {
	defer d.wg.Done()

	ctx := services.WithJobID(d.ctx, job.ID)
	ctx = services.WithClass(ctx, job.Class)
	logger := logging.WithContext(ctx, d.logger)

	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-ctx.Done():
		d.finish(ctx, logger, job, history.StatusError, errors.New("dispatcher stopped before the job started"))
		return
	}

	doc, err := d.fetcher.Fetch(ctx, job.URL)
	if err != nil {
		d.finish(ctx, logger, job, history.StatusError, err)
		return
	}
	defer func() {
		if err := doc.Remove(); err != nil {
			logger.Debug("temp file cleanup failed", logging.String("path", doc.Path), logging.Error(err))
		}
	}()
	logger.Info("document downloaded", logging.Int64("bytes", doc.Size))

	if err := d.printer.Print(ctx, printing.Job{Path: doc.Path, ClassID: job.Class, Class: class}); err != nil {
		d.finish(ctx, logger, job, history.StatusFailed, err)
		return
	}
	d.finish(ctx, logger, job, history.StatusCompleted, nil)
}

// finish writes the single terminal status for job.
func (d *Dispatcher) finish(ctx context.Context, logger *slog.Logger, job *history.Job, status history.Status, cause error) {
	ctx = context.WithoutCancel(ctx)
	message := ""
	if cause != nil {
		message = cause.Error()
	}

	if _, err := d.store.SetStatus(ctx, job.ID, status, message); err != nil {
		logging.ErrorWithContext(logger, "failed to record job status", "job_status_write_failed",
			logging.String("status", string(status)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the history database and disk space"),
		)
	}

	final, err := d.store.Get(ctx, job.ID)
	if err != nil || final == nil {
		copied := *job
		copied.Status = status
		copied.ErrorMessage = message
		final = &copied
	}

	if cause != nil {
		logging.WarnWithContext(logger, "print job did not complete", "print_job_"+string(status),
			logging.String("status", string(status)),
			logging.Error(cause),
			logging.String(logging.FieldErrorHint, hintFor(status)),
			logging.String(logging.FieldImpact, "document was not printed"),
		)
		if err := d.notifier.NotifyJobFailed(ctx, final); err != nil {
			logger.Debug("failure notification failed", logging.Error(err))
		}
	} else {
		logger.Info("print job completed", logging.String("status", string(status)))
		if err := d.notifier.NotifyJobCompleted(ctx, final); err != nil {
			logger.Debug("completion notification failed", logging.Error(err))
		}
	}

	if d.listener != nil {
		d.listener(final)
	}
}

func hintFor(status history.Status) string {
	if status == history.StatusFailed {
		return "check printer connection and the class printer name (qrprint printers)"
	}
	return "verify the scanned URL is reachable and returns a PDF"
}
