package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"qrprint/internal/config"
	"qrprint/internal/history"
	"qrprint/internal/services"
	"qrprint/internal/textutil"
)

const userAgent = "qrprint/0.1.0"

// Service defines the notification surface exposed to the dispatcher.
type Service interface {
	NotifyJobCompleted(ctx context.Context, job *history.Job) error
	NotifyJobFailed(ctx context.Context, job *history.Job) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Notifications.Completed,
		failed:    cfg.Notifications.Failed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	failed    bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, job *history.Job) error {
	if !n.completed || job == nil {
		return nil
	}
	data := payload{
		title:   "qrprint - Printed",
		message: fmt.Sprintf("✅ %s job #%d printed\n%s", classLabel(job.Class), job.ID, textutil.Truncate(job.URL, 80)),
		tags:    []string{"qrprint", "print", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, job *history.Job) error {
	if !n.failed || job == nil {
		return nil
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "❌ %s job #%d %s", classLabel(job.Class), job.ID, job.Status)
	if msg := strings.TrimSpace(job.ErrorMessage); msg != "" {
		builder.WriteString(": ")
		builder.WriteString(msg)
	}
	builder.WriteString("\n")
	builder.WriteString(textutil.Truncate(job.URL, 80))

	data := payload{
		title:    "qrprint - Print Failed",
		message:  builder.String(),
		tags:     []string{"qrprint", "print", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "qrprint - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"qrprint", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	req, err := n.newRequest(ctx, data)
	if err != nil {
		return services.Wrap(services.ErrValidation, "notifications", "build request", "invalid ntfy topic", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "notifications", "send", "ntfy request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// newRequest maps a payload onto ntfy's header-based publish format.
func (n *ntfyService) newRequest(ctx context.Context, data payload) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return nil, err
	}
	headers := map[string]string{
		"User-Agent":   userAgent,
		"Content-Type": "text/plain; charset=utf-8",
		"Title":        data.title,
		"Tags":         strings.Join(data.tags, ","),
		"Priority":     data.priority,
	}
	for key, value := range headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}
	return req, nil
}

func classLabel(class string) string {
	if strings.TrimSpace(class) == "" {
		return "Print"
	}
	return textutil.DisplayName(class)
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, *history.Job) error { return nil }
func (noopService) NotifyJobFailed(context.Context, *history.Job) error    { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
