package history

import (
	"errors"
	"fmt"
	"time"

	"qrprint/internal/dbexec"
)

const jobColumns = "id, url, doc_class, payload, status, error_message, created_at, finished_at"

func scanJob(row dbexec.Row) (*Job, error) {
	if len(row) != 8 {
		return nil, fmt.Errorf("scan job: expected 8 columns, got %d", len(row))
	}
	job := &Job{
		ID:           toInt64(row[0]),
		URL:          toString(row[1]),
		Class:        toString(row[2]),
		Payload:      toString(row[3]),
		Status:       Status(toString(row[4])),
		ErrorMessage: toString(row[5]),
	}
	if created, err := parseTime(row[6]); err == nil {
		job.CreatedAt = created
	}
	if row[7] != nil {
		if finished, err := parseTime(row[7]); err == nil {
			job.FinishedAt = &finished
		}
	}
	return job, nil
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseTimeString(v)
	case []byte:
		return parseTimeString(string(v))
	default:
		return time.Time{}, errors.New("unsupported time value")
	}
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
