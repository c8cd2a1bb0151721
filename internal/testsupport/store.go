package testsupport

import (
	"context"
	"testing"

	"qrprint/internal/config"
	"qrprint/internal/history"
	"qrprint/internal/logging"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

// NewJob creates a processing record for tests using the provided store.
func NewJob(t testing.TB, store *history.Store, class, url string) *history.Job {
	t.Helper()

	job, err := store.Create(context.Background(), history.NewJob{
		URL:     url,
		Class:   class,
		Payload: class + ":" + url,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
