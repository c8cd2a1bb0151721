package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"qrprint/internal/config"
	"qrprint/internal/history"
	"qrprint/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("rate limited"))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobFailed(context.Background(), &history.Job{ID: 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop test notification to return nil, got %v", err)
	}
}

func TestNotifyJobFailedFormatsPayload(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	job := &history.Job{
		ID:           42,
		URL:          "https://example.com/labels/42.pdf",
		Class:        "label",
		Status:       history.StatusFailed,
		ErrorMessage: "Printer 'Zebra' not found",
	}
	if err := svc.NotifyJobFailed(context.Background(), job); err != nil {
		t.Fatalf("NotifyJobFailed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	req := got[0]
	if req.title != "qrprint - Print Failed" || req.tags != "qrprint,print,error" || req.priority != "high" {
		t.Fatalf("unexpected headers %+v", req)
	}
	want := "❌ Label job #42 failed: Printer 'Zebra' not found\nhttps://example.com/labels/42.pdf"
	if req.body != want {
		t.Fatalf("body = %q, want %q", req.body, want)
	}
}

func TestCompletedNotificationsAreOptIn(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	job := &history.Job{ID: 7, URL: "https://example.com/r.pdf", Class: "receipt", Status: history.StatusCompleted}

	if err := notifications.NewService(&cfg).NotifyJobCompleted(context.Background(), job); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	if n := len(requests()); n != 0 {
		t.Fatalf("expected completed notifications disabled by default, got %d requests", n)
	}

	cfg.Notifications.Completed = true
	if err := notifications.NewService(&cfg).NotifyJobCompleted(context.Background(), job); err != nil {
		t.Fatalf("NotifyJobCompleted: %v", err)
	}
	got := requests()
	if len(got) != 1 || !strings.HasPrefix(got[0].body, "✅ Receipt job #7 printed") {
		t.Fatalf("unexpected requests %+v", got)
	}
	if got[0].priority != "" {
		t.Fatalf("expected default priority, got %q", got[0].priority)
	}
}

func TestSendReportsServerError(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusTooManyRequests)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 429: rate limited") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}
