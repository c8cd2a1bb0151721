package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPayload reports a blank scan.
	ErrEmptyPayload = errors.New("please scan or enter QR code data")
	// ErrJobNotFound reports a reprint of an unknown history id.
	ErrJobNotFound = errors.New("job not found")
	// ErrUnknownClass reports a history record whose class no longer exists.
	ErrUnknownClass = errors.New("unknown printer class")
	// ErrClosed reports a submit after Close.
	ErrClosed = errors.New("dispatcher closed")
)

// FormatError reports a payload without a prefix/URL separator.
type FormatError struct {
	Separator string
	Example   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid QR format. Expected: 'prefix%surl' (e.g., '%s%shttps://example.com/file.pdf')",
		e.Separator, e.Example, e.Separator)
}

// UnknownPrefixError reports a prefix no printer class claims.
type UnknownPrefixError struct {
	Prefix string
	Valid  []string
}

func (e *UnknownPrefixError) Error() string {
	return fmt.Sprintf("Unknown prefix: '%s'. Valid prefixes: %s", e.Prefix, strings.Join(e.Valid, ", "))
}

// InvalidURLError reports a document address that is not an absolute
// http(s) URL.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("Invalid document URL '%s': expected an absolute http or https URL", e.URL)
}
