package fetch

import "fmt"

// HTTPStatusError reports a non-2xx download response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status code %d", e.URL, e.StatusCode)
}

// ContentTypeError reports a response that is not a PDF.
type ContentTypeError struct {
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("URL does not return a PDF file (Content-Type: %s)", e.ContentType)
}
