// Package notifications pushes print job outcomes to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the dispatcher can call it unconditionally. Completed and failed events are
// gated separately by the [notifications] config section.
package notifications
