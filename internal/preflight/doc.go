// Package preflight provides readiness checks for the paths, print
// commands, and printers qrprint depends on.
//
// The check command prints every result; the station runs the directory
// checks before it opens the history database.
package preflight
