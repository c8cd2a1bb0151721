// Package services defines shared utilities consumed by the dispatcher and its
// fetch/print adapters.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, document classes, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag job failures so
//     callers can tell spooler failures from download or validation errors.
package services
