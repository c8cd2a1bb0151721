package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers classify job failures. Wrap attaches one to an error chain so
// callers can test it with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNetwork      = errors.New("network error")
	ErrExternalTool = errors.New("external tool error")
	ErrTransient    = errors.New("transient failure")
)

// Wrap tags err with marker and prefixes it with "component: operation:
// message". Blank parts are skipped. A nil marker defaults to ErrTransient.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinDetail(component, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

func joinDetail(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return "job failure"
	}
	return strings.Join(kept, ": ")
}
