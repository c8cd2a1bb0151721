package history

import "time"

// Status is the free-form job state. The four values below are the ones the
// dispatcher writes.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
)

// StaleReason is the message written to records left processing by a
// previous session.
const StaleReason = "interrupted before completion"

// AllStatuses lists the conventional statuses in display order.
func AllStatuses() []Status {
	return []Status{StatusProcessing, StatusCompleted, StatusFailed, StatusError}
}

// IsTerminal reports whether the status ends a job.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// DisplayName renders the status for operator-facing tables.
func (s Status) DisplayName() string {
	switch s {
	case StatusCompleted:
		return "✓ Done"
	case StatusFailed, StatusError:
		return "✗ Failed"
	case StatusProcessing:
		return "⏳ Processing"
	default:
		return string(s)
	}
}

// Job is one persisted print request.
type Job struct {
	ID           int64
	URL          string
	Class        string
	Payload      string
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	FinishedAt   *time.Time
}

// NewJob carries the caller-supplied fields of a record. The store assigns
// the id, creation time, and initial status.
type NewJob struct {
	URL     string
	Class   string
	Payload string
}
