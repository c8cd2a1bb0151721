package dbexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"qrprint/internal/logging"
)

const (
	defaultRequestTimeout  = 5 * time.Second
	defaultShutdownTimeout = 2 * time.Second
	defaultPollInterval    = time.Second
	defaultQueueSize       = 64
	defaultBusyTimeout     = 5 * time.Second
)

// Options configures a Gateway.
type Options struct {
	Path            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	PollInterval    time.Duration
	QueueSize       int
	BusyTimeout     time.Duration
	Logger          *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = defaultBusyTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
}

// Stats is a point-in-time view of worker activity.
type Stats struct {
	Processed int64
	Failed    int64
	Pending   int
}

// Gateway is the blocking request/response facade over the persistence
// worker. It is safe for concurrent use.
type Gateway struct {
	path            string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	requests chan request
	closing  chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc
	worker   *worker

	closeOnce sync.Once
	closeErr  error
}

// Open connects to the database at opts.Path and starts the worker.
func Open(ctx context.Context, opts Options) (*Gateway, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("database path is required")
	}
	opts.applyDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	db, conn, err := openConn(ctx, opts.Path, opts.BusyTimeout)
	if err != nil {
		return nil, err
	}

	logger := logging.NewComponentLogger(opts.Logger, "dbexec")
	requests := make(chan request, opts.QueueSize)
	w := &worker{
		db:       db,
		conn:     conn,
		requests: requests,
		done:     make(chan struct{}),
		poll:     opts.PollInterval,
		logger:   logger,
	}

	// The worker outlives the caller's context; only Close stops it.
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g := &Gateway{
		path:            opts.Path,
		requestTimeout:  opts.RequestTimeout,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          logger,
		requests:        requests,
		closing:         make(chan struct{}),
		done:            w.done,
		cancel:          cancel,
		worker:          w,
	}
	go w.run(workerCtx)
	logger.Debug("persistence worker started", logging.String("path", opts.Path))
	return g, nil
}

// Path returns the database file location.
func (g *Gateway) Path() string {
	return g.path
}

// Submit enqueues a request and waits for its reply. A timeout of zero uses
// the gateway default.
func (g *Gateway) Submit(ctx context.Context, kind Kind, query string, args []any, timeout time.Duration) (Result, error) {
	if !kind.valid() {
		return Result{}, &DatabaseError{Kind: kind, Message: "unsupported request kind"}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = g.requestTimeout
	}

	select {
	case <-g.closing:
		return Result{}, ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	req := request{id: uuid.NewString(), kind: kind, query: query, args: args, reply: make(chan reply, 1)}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case g.requests <- req:
	case <-g.closing:
		return Result{}, ErrClosed
	case <-g.done:
		return Result{}, ErrClosed
	case <-timer.C:
		return Result{}, fmt.Errorf("%w: %s not queued within %s", ErrTimeout, kind, timeout)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case rep := <-req.reply:
		return rep.result, rep.err
	case <-timer.C:
		return Result{}, fmt.Errorf("%w: no %s reply within %s", ErrTimeout, kind, timeout)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-g.done:
		select {
		case rep := <-req.reply:
			return rep.result, rep.err
		default:
			return Result{}, ErrClosed
		}
	}
}

// Init runs idempotent schema DDL.
func (g *Gateway) Init(ctx context.Context, ddl string) error {
	_, err := g.Submit(ctx, KindInit, ddl, nil, 0)
	return err
}

// Insert executes a write and returns the new row id.
func (g *Gateway) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := g.Submit(ctx, KindInsert, query, args, 0)
	if err != nil {
		return 0, err
	}
	return res.LastInsertID, nil
}

// Update executes a write and returns the affected row count.
func (g *Gateway) Update(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := g.Submit(ctx, KindUpdate, query, args, 0)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Delete executes a delete and returns the affected row count. Deleting a
// missing row is not an error.
func (g *Gateway) Delete(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := g.Submit(ctx, KindDelete, query, args, 0)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Select returns every row the query produces, in query order.
func (g *Gateway) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	res, err := g.Submit(ctx, KindSelect, query, args, 0)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// SelectOne returns the first row, or nil when nothing matched.
func (g *Gateway) SelectOne(ctx context.Context, query string, args ...any) (Row, error) {
	res, err := g.Submit(ctx, KindSelectOne, query, args, 0)
	if err != nil {
		return nil, err
	}
	return res.Row, nil
}

// Stats reports worker counters.
func (g *Gateway) Stats() Stats {
	return Stats{
		Processed: g.worker.processed.Load(),
		Failed:    g.worker.failed.Load(),
		Pending:   len(g.requests),
	}
}

// Close stops accepting requests, lets the worker finish everything queued
// ahead of the stop request, and closes the connection. Waiting is bounded by
// the shutdown timeout; past it the worker is cancelled.
func (g *Gateway) Close(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.closeOnce.Do(func() {
		g.closeErr = g.stop(ctx)
	})
	return g.closeErr
}

func (g *Gateway) stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	close(g.closing)

	timer := time.NewTimer(g.shutdownTimeout)
	defer timer.Stop()

	stop := request{kind: kindStop, reply: make(chan reply, 1)}
	select {
	case g.requests <- stop:
	case <-g.done:
		return nil
	case <-timer.C:
		return g.abort("queue full")
	case <-ctx.Done():
		return g.abort(ctx.Err().Error())
	}

	select {
	case <-g.done:
		g.logger.Debug("persistence worker stopped")
		return nil
	case <-timer.C:
		return g.abort("worker busy")
	case <-ctx.Done():
		return g.abort(ctx.Err().Error())
	}
}

func (g *Gateway) abort(reason string) error {
	g.cancel()
	logging.WarnWithContext(g.logger, "persistence worker did not stop in time", "database_shutdown_timeout",
		logging.String("reason", reason),
		logging.Duration("shutdown_timeout", g.shutdownTimeout),
		logging.String(logging.FieldErrorHint, "raise store.shutdown_timeout if long writes are expected"),
		logging.String(logging.FieldImpact, "in-flight request was cancelled"),
	)
	<-g.done
	return fmt.Errorf("%w: worker did not stop within %s (%s)", ErrClosed, g.shutdownTimeout, reason)
}
