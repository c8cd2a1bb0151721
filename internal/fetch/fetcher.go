package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"qrprint/internal/logging"
	"qrprint/internal/services"
)

const (
	defaultTimeout = 30 * time.Second
	tempFilePrefix = "qrprint_"
	pdfContentType = "application/pdf"
)

// Document is a downloaded PDF on local disk.
type Document struct {
	Path        string
	ContentType string
	Size        int64
}

// Remove deletes the temp file. It is safe to call more than once.
func (d *Document) Remove() error {
	if d == nil || d.Path == "" {
		return nil
	}
	if err := os.Remove(d.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	client  *http.Client
	tempDir string
	logger  *slog.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client. The client's own timeout is
// left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New constructs a Fetcher that writes into tempDir and bounds each download
// by timeout.
func New(tempDir string, timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if strings.TrimSpace(tempDir) == "" {
		tempDir = os.TempDir()
	}
	f := &Fetcher{
		client:  &http.Client{Timeout: timeout},
		tempDir: tempDir,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and stores the body in a uniquely named temp file. The
// response must be a PDF by Content-Type, or the URL must end in .pdf.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "fetch", "build request", "invalid document URL", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "fetch", "download", "failed to download document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isPDF(contentType, url) {
		return nil, &ContentTypeError{ContentType: contentType}
	}

	if err := os.MkdirAll(f.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(f.tempDir, tempFilePrefix+strings.ReplaceAll(uuid.NewString(), "-", "")+".pdf")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	size, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("save document: %w", err)
	}

	f.logger.Debug("document downloaded",
		logging.String("url", url),
		logging.String("path", path),
		logging.Int64("bytes", size),
		logging.String("content_type", contentType),
	)
	return &Document{Path: path, ContentType: contentType, Size: size}, nil
}

func isPDF(contentType, url string) bool {
	if strings.Contains(strings.ToLower(contentType), pdfContentType) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(url), ".pdf")
}
