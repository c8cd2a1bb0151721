package testsupport

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"qrprint/internal/config"
)

// MinimalPDF is a tiny byte sequence that starts like a PDF document.
var MinimalPDF = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n")

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// NewPDFServer serves MinimalPDF at every path ending in .pdf and 404 elsewhere.
func NewPDFServer(t testing.TB) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if filepath.Ext(r.URL.Path) != ".pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(MinimalPDF)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// MustLoadPrinters loads (or creates) the printer-class document at the
// config's printer_config path.
func MustLoadPrinters(t testing.TB, cfg *config.Config) *config.PrinterConfig {
	t.Helper()

	printers, err := config.LoadPrinters(cfg.Paths.PrinterConfig)
	if err != nil {
		t.Fatalf("config.LoadPrinters: %v", err)
	}
	return printers
}
