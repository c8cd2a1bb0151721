package dbexec

// Kind identifies the operation a request performs.
type Kind string

const (
	// KindInit runs schema DDL inside a transaction. It must be idempotent.
	KindInit Kind = "init"
	// KindInsert executes a write and reports the new row id.
	KindInsert Kind = "insert"
	// KindUpdate executes a write and reports the affected row count.
	KindUpdate Kind = "update"
	// KindDelete executes a write and reports the affected row count.
	KindDelete Kind = "delete"
	// KindSelect returns every row the query produces.
	KindSelect Kind = "select"
	// KindSelectOne returns the first row the query produces, if any.
	KindSelectOne Kind = "select_one"

	kindStop Kind = "stop"
)

func (k Kind) valid() bool {
	switch k {
	case KindInit, KindInsert, KindUpdate, KindDelete, KindSelect, KindSelectOne:
		return true
	default:
		return false
	}
}

// Row holds column values in query order.
type Row []any

// Result carries the payload of a successful request. Which fields are set
// depends on the request kind.
type Result struct {
	LastInsertID int64
	RowsAffected int64
	Columns      []string
	Rows         []Row
	// Row is nil when a select_one query matched nothing.
	Row Row
}

type request struct {
	id    string
	kind  Kind
	query string
	args  []any
	reply chan reply
}

type reply struct {
	result Result
	err    error
}
