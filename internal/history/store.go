package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qrprint/internal/config"
	"qrprint/internal/dbexec"
)

// Store manages print history persistence.
type Store struct {
	gw           *dbexec.Gateway
	path         string
	defaultLimit int
}

// Open starts the persistence worker for the configured history database and
// ensures the schema exists.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history: config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	path := cfg.HistoryDBPath()
	gw, err := dbexec.Open(ctx, dbexec.Options{
		Path:            path,
		RequestTimeout:  cfg.RequestTimeout(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		PollInterval:    cfg.PollInterval(),
		QueueSize:       cfg.Store.QueueSize,
		BusyTimeout:     cfg.BusyTimeout(),
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	store := &Store{gw: gw, path: path, defaultLimit: cfg.Dispatch.HistoryLimit}
	if err := store.initSchema(ctx); err != nil {
		_ = gw.Close(context.Background())
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Stats exposes the persistence worker counters.
func (s *Store) Stats() dbexec.Stats {
	return s.gw.Stats()
}

// Create inserts a processing record and returns it with store-assigned fields.
func (s *Store) Create(ctx context.Context, job NewJob) (*Job, error) {
	url := strings.TrimSpace(job.URL)
	if url == "" {
		return nil, errors.New("history: url is required")
	}
	id, err := s.gw.Insert(ctx,
		"INSERT INTO print_history (url, doc_class, payload, status) VALUES (?, ?, ?, ?)",
		url, nullableString(job.Class), nullableString(job.Payload), string(StatusProcessing),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	created, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("insert job: record %d vanished after insert", id)
	}
	return created, nil
}

// SetStatus writes a job status and message. Terminal statuses also stamp
// finished_at. It returns the number of records updated.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status, message string) (int64, error) {
	var finished any
	if status.IsTerminal() {
		finished = formatTime(time.Now())
	}
	affected, err := s.gw.Update(ctx,
		"UPDATE print_history SET status = ?, error_message = ?, finished_at = ? WHERE id = ?",
		string(status), nullableString(message), finished, id,
	)
	if err != nil {
		return 0, fmt.Errorf("update job %d status: %w", id, err)
	}
	return affected, nil
}

// Get returns the record with the given id, or nil when none exists.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	row, err := s.gw.SelectOne(ctx, "SELECT "+jobColumns+" FROM print_history WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return scanJob(row)
}

// Recent returns up to limit records, newest first. A non-positive limit
// uses the configured history limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.gw.Select(ctx,
		"SELECT "+jobColumns+" FROM print_history ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	jobs := make([]*Job, 0, len(rows))
	for _, row := range rows {
		job, err := scanJob(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Delete removes one record. Deleting an unknown id returns 0 without error.
func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	affected, err := s.gw.Delete(ctx, "DELETE FROM print_history WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete job %d: %w", id, err)
	}
	return affected, nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	affected, err := s.gw.Delete(ctx, "DELETE FROM print_history")
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return affected, nil
}

// Count returns the total number of records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	row, err := s.gw.SelectOne(ctx, "SELECT COUNT(*) FROM print_history")
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	if row == nil {
		return 0, nil
	}
	return toInt64(row[0]), nil
}

// CountByStatus returns record totals keyed by status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	rows, err := s.gw.Select(ctx, "SELECT status, COUNT(*) FROM print_history GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[Status(toString(row[0]))] = toInt64(row[1])
	}
	return counts, nil
}

// ResetStale finalizes records a previous session left processing.
func (s *Store) ResetStale(ctx context.Context) (int64, error) {
	affected, err := s.gw.Update(ctx,
		"UPDATE print_history SET status = ?, error_message = ?, finished_at = ? WHERE status = ?",
		string(StatusError), StaleReason, formatTime(time.Now()), string(StatusProcessing),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stale jobs: %w", err)
	}
	return affected, nil
}

// Close stops the persistence worker.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.gw == nil {
		return nil
	}
	return s.gw.Close(ctx)
}
