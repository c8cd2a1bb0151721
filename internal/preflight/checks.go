package preflight

import (
	"context"
	"fmt"
	"os"
	"slices"

	"qrprint/internal/config"
	"qrprint/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSpooler reports whether the print commands for goos are installed.
// Optional commands pass with a note when missing.
func CheckSpooler(goos string) []Result {
	reqs := deps.SpoolerRequirements(goos)
	if len(reqs) == 0 {
		return []Result{{Name: "Print spooler", Detail: fmt.Sprintf("printing not supported on %s", goos)}}
	}
	statuses := deps.CheckBinaries(reqs)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		switch {
		case status.Available:
			results = append(results, Result{Name: status.Name, Passed: true, Detail: status.Command})
		case status.Optional:
			results = append(results, Result{Name: status.Name, Passed: true, Detail: status.Detail + " (optional)"})
		default:
			results = append(results, Result{Name: status.Name, Detail: status.Detail})
		}
	}
	return results
}

// CheckPrinterClasses verifies that every class routed to a named printer
// points at an installed one.
func CheckPrinterClasses(ctx context.Context, printers *config.PrinterConfig, lister PrinterLister) []Result {
	installed, err := lister.ListPrinters(ctx)
	if err != nil {
		return []Result{{Name: "Printer discovery", Detail: fmt.Sprintf("list printers failed (%v)", err)}}
	}

	var results []Result
	for _, id := range printers.ClassIDs() {
		class, _ := printers.Class(id)
		name := fmt.Sprintf("Class %s", id)
		switch {
		case class.UsesDefaultPrinter():
			results = append(results, Result{Name: name, Passed: true, Detail: "system default printer"})
		case slices.Contains(installed, class.PrinterName):
			results = append(results, Result{Name: name, Passed: true, Detail: class.PrinterName})
		default:
			results = append(results, Result{Name: name, Detail: fmt.Sprintf("printer %q not installed", class.PrinterName)})
		}
	}
	return results
}
