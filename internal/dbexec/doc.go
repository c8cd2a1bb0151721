// Package dbexec serializes SQLite access onto a single pinned connection.
//
// A Gateway owns one worker goroutine that holds the only *sql.Conn for the
// database. Callers on any goroutine submit requests (init, insert, update,
// delete, select, select_one) and block on a reply channel created for that
// request alone, so results can never be delivered to the wrong caller.
// Requests execute strictly in arrival order. A failed request is reported
// to its caller as a *DatabaseError and the worker keeps serving.
//
// Callers that give up after their timeout do not cancel the request; it may
// still run to completion on the worker.
package dbexec
