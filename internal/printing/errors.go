package printing

import (
	"errors"
	"fmt"

	"qrprint/internal/services"
)

var (
	// ErrUnsupportedPlatform reports an OS with no known print command.
	ErrUnsupportedPlatform = errors.New("printing not supported on this platform")
	// ErrPrinterNotFound reports a spooler rejecting an unknown destination.
	ErrPrinterNotFound = errors.New("printer not found")
)

// PrinterNotFoundError names the destination the spooler did not know. It
// matches both ErrPrinterNotFound and services.ErrExternalTool.
type PrinterNotFoundError struct {
	Printer string
	Err     error
}

func (e *PrinterNotFoundError) Error() string {
	return fmt.Sprintf("Printer '%s' not found. Please check printer configuration.", e.Printer)
}

func (e *PrinterNotFoundError) Unwrap() []error {
	errs := []error{ErrPrinterNotFound, services.ErrExternalTool}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
