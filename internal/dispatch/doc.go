// Package dispatch turns scanned payloads into print jobs.
//
// A payload has the form "<prefix><separator><url>", for example
// "label:https://example.com/file.pdf". The prefix selects a printer class
// from the printer configuration. Submit records the job before any
// background work starts, then downloads and prints it on its own goroutine
// and writes exactly one terminal status: completed, failed when the spooler
// rejects the document, or error for every other failure.
package dispatch
