package preflight

import (
	"context"
	"runtime"

	"qrprint/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// PrinterLister reports installed printer names.
type PrinterLister interface {
	ListPrinters(ctx context.Context) ([]string, error)
}

// RunAll executes every preflight check. Printer class checks run only when
// both printers and lister are provided.
func RunAll(ctx context.Context, cfg *config.Config, printers *config.PrinterConfig, lister PrinterLister) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDirectories(cfg)
	results = append(results, CheckSpooler(runtime.GOOS)...)
	if printers != nil && lister != nil {
		results = append(results, CheckPrinterClasses(ctx, printers, lister)...)
	}
	return results
}

// CheckDirectories verifies the data, log, and temp directories.
func CheckDirectories(cfg *config.Config) []Result {
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
