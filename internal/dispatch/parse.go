package dispatch

import (
	"net/url"
	"strings"

	"qrprint/internal/config"
	"qrprint/internal/textutil"
)

const previewURLLimit = 60

// Scan is a validated payload.
type Scan struct {
	Raw     string
	Prefix  string
	ClassID string
	Class   config.PrinterClass
	URL     string
}

// Preview is the operator-facing summary of a payload before it is printed.
type Preview struct {
	DisplayName string
	URL         string
}

// Parse validates raw against the printer classes in printers.
func Parse(printers *config.PrinterConfig, raw string) (Scan, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Scan{}, ErrEmptyPayload
	}

	sep := printers.Separator()
	prefix, rest, found := strings.Cut(raw, sep)
	rest = strings.TrimSpace(rest)
	if !found || rest == "" {
		return Scan{}, &FormatError{Separator: sep, Example: firstPrefix(printers)}
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	id, class, ok := printers.ClassByPrefix(prefix)
	if !ok {
		return Scan{}, &UnknownPrefixError{Prefix: prefix, Valid: printers.Prefixes()}
	}

	if !validDocumentURL(rest) {
		return Scan{}, &InvalidURLError{URL: rest}
	}

	return Scan{Raw: raw, Prefix: prefix, ClassID: id, Class: class, URL: rest}, nil
}

// Describe parses raw and returns its class display name and a shortened URL.
func Describe(printers *config.PrinterConfig, raw string) (Preview, error) {
	scan, err := Parse(printers, raw)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		DisplayName: scan.Class.DisplayName,
		URL:         textutil.Truncate(scan.URL, previewURLLimit),
	}, nil
}

func validDocumentURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}

func firstPrefix(printers *config.PrinterConfig) string {
	if prefixes := printers.Prefixes(); len(prefixes) > 0 {
		return prefixes[0]
	}
	return "prefix"
}
