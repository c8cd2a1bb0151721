// Package history persists print job records in SQLite.
//
// Every read and write goes through a dbexec.Gateway, so the store is safe to
// share between the interactive loop and background print jobs. Records are
// created in the processing state and receive exactly one terminal status
// from the dispatcher.
package history
