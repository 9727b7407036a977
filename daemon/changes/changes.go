// Package changes defines the change-source interface between the external
// state store and the reconciliation core: discrete row-level records
// (SET/DELETE of a string field map) delivered per table, with non-blocking
// pop semantics, plus an in-memory broker and a unix-socket feed that
// publishes into it.
package changes

// Op is the operation carried by a change record.
type Op string

const (
	// OpSet replaces the full field set for a key.
	OpSet Op = "SET"
	// OpDelete removes a key.
	OpDelete Op = "DEL"
)

// Table identifies one change-source: a table inside a named store.
type Table struct {
	Store string
	Name  string
}

func (t Table) String() string {
	return t.Store + "/" + t.Name
}

// Change is one row-level change record.
type Change struct {
	Key    string
	Op     Op
	Fields map[string]string
}

// Source yields pending changes for one table. Pop never blocks; the second
// return value is false when nothing is pending. Readiness returns a
// channel that is closed while the source has pending changes and re-armed
// once it drains, so a consumer polling one change per wake keeps being
// signalled until the backlog is gone.
type Source interface {
	Pop() (Change, bool)
	Readiness() <-chan struct{}
}

// Subscriber hands out the source for a table, creating it on first use.
type Subscriber interface {
	Subscribe(t Table) (Source, error)
}
