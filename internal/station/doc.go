// Package station assembles a scanning session: printer classes, the history
// store, the dispatcher, and the lock file that keeps a single session in
// charge of stale-record recovery.
package station
