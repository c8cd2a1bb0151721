package history_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"qrprint/internal/dbexec"
	"qrprint/internal/history"
	"qrprint/internal/testsupport"
)

func TestCreateAssignsStoreFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	before := time.Now().UTC().Add(-time.Second)
	job, err := store.Create(context.Background(), history.NewJob{
		URL:     "https://example.com/label.pdf",
		Class:   "label",
		Payload: "label:https://example.com/label.pdf",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != history.StatusProcessing {
		t.Fatalf("expected processing status, got %q", job.Status)
	}
	if job.CreatedAt.Before(before) {
		t.Fatalf("created_at %v earlier than %v", job.CreatedAt, before)
	}
	if job.FinishedAt != nil {
		t.Fatalf("expected no finished_at on fresh job, got %v", job.FinishedAt)
	}
	if job.Class != "label" || job.Payload != "label:https://example.com/label.pdf" {
		t.Fatalf("unexpected job %#v", job)
	}
}

func TestCreateRequiresURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := store.Create(context.Background(), history.NewJob{Class: "label"}); err == nil {
		t.Fatal("expected error when url missing")
	}
}

func TestSetStatusStampsFinishedAtWithoutTouchingCreatedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "receipt", "https://example.com/r.pdf")
	affected, err := store.SetStatus(ctx, job.ID, history.StatusFailed, "printer offline")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row updated, got %d", affected)
	}

	updated, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if updated.Status != history.StatusFailed || updated.ErrorMessage != "printer offline" {
		t.Fatalf("unexpected updated job %#v", updated)
	}
	if updated.FinishedAt == nil {
		t.Fatal("expected finished_at for terminal status")
	}
	if !updated.CreatedAt.Equal(job.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", job.CreatedAt, updated.CreatedAt)
	}

	if affected, err := store.SetStatus(ctx, job.ID+99, history.StatusCompleted, ""); err != nil || affected != 0 {
		t.Fatalf("expected 0 rows for unknown id, got %d err=%v", affected, err)
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.Get(context.Background(), 4242)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %#v", job)
	}
}

func TestRecentIsNewestFirstAndBounded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	var ids []int64
	for i := 0; i < 5; i++ {
		job := testsupport.NewJob(t, store, "label", fmt.Sprintf("https://example.com/%d.pdf", i))
		ids = append(ids, job.ID)
	}

	jobs, err := store.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	for i, want := range []int64{ids[4], ids[3], ids[2]} {
		if jobs[i].ID != want {
			t.Fatalf("position %d: got id %d, want %d", i, jobs[i].ID, want)
		}
	}

	all, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent default failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 jobs with default limit, got %d", len(all))
	}
}

func TestDeleteAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewJob(t, store, "label", "https://example.com/a.pdf")
	testsupport.NewJob(t, store, "label", "https://example.com/b.pdf")
	testsupport.NewJob(t, store, "receipt", "https://example.com/c.pdf")

	if n, err := store.Delete(ctx, first.ID); err != nil || n != 1 {
		t.Fatalf("Delete existing: n=%d err=%v", n, err)
	}
	if n, err := store.Delete(ctx, first.ID); err != nil || n != 0 {
		t.Fatalf("Delete unknown: n=%d err=%v", n, err)
	}
	if n, err := store.Clear(ctx); err != nil || n != 2 {
		t.Fatalf("Clear: n=%d err=%v", n, err)
	}
	if total, err := store.Count(ctx); err != nil || total != 0 {
		t.Fatalf("Count after clear: %d err=%v", total, err)
	}
}

func TestCountByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a := testsupport.NewJob(t, store, "label", "https://example.com/a.pdf")
	b := testsupport.NewJob(t, store, "label", "https://example.com/b.pdf")
	testsupport.NewJob(t, store, "label", "https://example.com/c.pdf")
	if _, err := store.SetStatus(ctx, a.ID, history.StatusCompleted, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := store.SetStatus(ctx, b.ID, history.StatusError, "download failed"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	want := map[history.Status]int64{
		history.StatusCompleted:  1,
		history.StatusError:      1,
		history.StatusProcessing: 1,
	}
	for status, n := range want {
		if counts[status] != n {
			t.Fatalf("count[%s] = %d, want %d (all=%v)", status, counts[status], n, counts)
		}
	}
	if total, err := store.Count(ctx); err != nil || total != 3 {
		t.Fatalf("Count: %d err=%v", total, err)
	}
}

func TestResetStaleFinalizesProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stale := testsupport.NewJob(t, store, "label", "https://example.com/stale.pdf")
	done := testsupport.NewJob(t, store, "label", "https://example.com/done.pdf")
	if _, err := store.SetStatus(ctx, done.ID, history.StatusCompleted, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	n, err := store.ResetStale(ctx)
	if err != nil {
		t.Fatalf("ResetStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stale job, got %d", n)
	}
	got, err := store.Get(ctx, stale.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != history.StatusError || got.ErrorMessage != history.StaleReason {
		t.Fatalf("unexpected stale job after reset %#v", got)
	}
	untouched, err := store.Get(ctx, done.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if untouched.Status != history.StatusCompleted {
		t.Fatalf("completed job changed to %q", untouched.Status)
	}
}

func TestConcurrentCreateAndFinalize(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				job, err := store.Create(ctx, history.NewJob{URL: fmt.Sprintf("https://example.com/w%d/%d.pdf", w, i), Class: "label"})
				if err != nil {
					errs <- err
					return
				}
				if _, err := store.SetStatus(ctx, job.ID, history.StatusCompleted, ""); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("worker error: %v", err)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[history.StatusCompleted] != workers*5 || counts[history.StatusProcessing] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, first, "label", "https://example.com/keep.pdf")
	if err := first.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := first.Count(ctx); !errors.Is(err, dbexec.ErrClosed) {
		t.Fatalf("expected ErrClosed after Close, got %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	got, err := second.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got == nil || got.URL != "https://example.com/keep.pdf" {
		t.Fatalf("unexpected job after reopen %#v", got)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store := testsupport.MustOpenStore(t, cfg)
	if err := store.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	gw, err := dbexec.Open(ctx, dbexec.Options{Path: cfg.HistoryDBPath()})
	if err != nil {
		t.Fatalf("dbexec.Open: %v", err)
	}
	if _, err := gw.Update(ctx, "UPDATE schema_version SET version = version + 1"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := gw.Close(ctx); err != nil {
		t.Fatalf("gateway Close: %v", err)
	}

	_, err = history.Open(ctx, cfg, nil)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "delete "+cfg.HistoryDBPath()) {
		t.Fatalf("expected hint naming the database file, got %v", err)
	}
}

func TestStatusDisplayNames(t *testing.T) {
	cases := map[history.Status]string{
		history.StatusCompleted:  "✓ Done",
		history.StatusFailed:     "✗ Failed",
		history.StatusError:      "✗ Failed",
		history.StatusProcessing: "⏳ Processing",
		history.Status("queued"): "queued",
	}
	for status, want := range cases {
		if got := status.DisplayName(); got != want {
			t.Fatalf("%s display = %q, want %q", status, got, want)
		}
	}
}
