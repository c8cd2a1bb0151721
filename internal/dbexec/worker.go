package dbexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"qrprint/internal/logging"
)

// worker is the sole owner of conn. Nothing outside run touches it.
type worker struct {
	db       *sql.DB
	conn     *sql.Conn
	requests chan request
	done     chan struct{}
	poll     time.Duration
	logger   *slog.Logger

	dirty     bool
	processed atomic.Int64
	failed    atomic.Int64
}

func (w *worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.shutdown()

	idle := time.NewTimer(w.poll)
	defer idle.Stop()

	for {
		// Cancellation wins over queued work; shutdown answers the rest.
		if ctx.Err() != nil {
			return
		}
		select {
		case req := <-w.requests:
			if req.kind == kindStop {
				req.reply <- reply{}
				return
			}
			w.handle(ctx, req)
			idle.Reset(w.poll)
		case <-idle.C:
			w.checkpoint(ctx)
			idle.Reset(w.poll)
		case <-ctx.Done():
			return
		}
	}
}

func (w *worker) handle(ctx context.Context, req request) {
	started := time.Now()
	result, err := w.execute(ctx, req)
	w.processed.Add(1)
	if err != nil {
		w.failed.Add(1)
		w.logger.Debug("database request failed",
			logging.String(logging.FieldOp, string(req.kind)),
			logging.String(logging.FieldCorrelationID, req.id),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
	} else if req.kind != KindSelect && req.kind != KindSelectOne {
		w.dirty = true
	}
	// reply is buffered; a caller that already gave up never blocks the worker.
	req.reply <- reply{result: result, err: err}
}

func (w *worker) execute(ctx context.Context, req request) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{}
			err = &DatabaseError{Kind: req.kind, Message: fmt.Sprintf("panic during execution: %v", r)}
		}
	}()

	switch req.kind {
	case KindInit:
		err = w.initSchema(ctx, req)
	case KindInsert:
		var res sql.Result
		if res, err = w.exec(ctx, req); err == nil {
			result.LastInsertID, err = res.LastInsertId()
		}
	case KindUpdate, KindDelete:
		var res sql.Result
		if res, err = w.exec(ctx, req); err == nil {
			result.RowsAffected, err = res.RowsAffected()
		}
	case KindSelect:
		result.Columns, result.Rows, err = w.query(ctx, req, 0)
	case KindSelectOne:
		var rows []Row
		result.Columns, rows, err = w.query(ctx, req, 1)
		if err == nil && len(rows) > 0 {
			result.Row = rows[0]
		}
	default:
		err = fmt.Errorf("unsupported request kind %q", req.kind)
	}
	if err != nil {
		return Result{}, newDatabaseError(req.kind, err)
	}
	return result, nil
}

func (w *worker) initSchema(ctx context.Context, req request) error {
	return retryOnBusy(ctx, func() error {
		tx, err := w.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin init tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, req.query, req.args...); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (w *worker) exec(ctx context.Context, req request) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = w.conn.ExecContext(ctx, req.query, req.args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// query reads at most limit rows; limit 0 reads everything.
func (w *worker) query(ctx context.Context, req request, limit int) ([]string, []Row, error) {
	var (
		columns []string
		out     []Row
	)
	err := retryOnBusy(ctx, func() error {
		columns, out = nil, nil
		rows, err := w.conn.QueryContext(ctx, req.query, req.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err = rows.Columns()
		if err != nil {
			return err
		}
		for rows.Next() {
			values := make([]any, len(columns))
			ptrs := make([]any, len(columns))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			for i, v := range values {
				if b, ok := v.([]byte); ok {
					values[i] = append([]byte(nil), b...)
				}
			}
			out = append(out, Row(values))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}

func (w *worker) checkpoint(ctx context.Context) {
	if !w.dirty {
		return
	}
	if _, err := w.conn.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		w.logger.Debug("wal checkpoint failed", logging.Error(err))
		return
	}
	w.dirty = false
}

func (w *worker) shutdown() {
	for {
		select {
		case req := <-w.requests:
			if req.kind != kindStop {
				req.reply <- reply{err: ErrClosed}
			} else {
				req.reply <- reply{}
			}
		default:
			if err := errors.Join(w.conn.Close(), w.db.Close()); err != nil {
				logging.WarnWithContext(w.logger, "database close failed", "database_close_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "recent writes may remain in the WAL file until next open"),
				)
			}
			return
		}
	}
}
