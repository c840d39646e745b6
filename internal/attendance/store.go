package attendance

import (
	"context"
	"errors"
	"time"
)

// ErrRecordNotFound is returned by Store.Update for an unknown id.
var ErrRecordNotFound = errors.New("attendance: record not found")

// Order selects the sort applied by Store.Find.
type Order int

const (
	// OrderDateAsc sorts by day, then creation time.
	OrderDateAsc Order = iota
	// OrderDateDesc sorts by day, newest first.
	OrderDateDesc
	// OrderCreatedDesc sorts by creation time, newest first.
	OrderCreatedDesc
)

// Query filters ledger reads. Zero fields do not filter. From and To are
// normalized days and inclusive. A non-nil empty StudentIDs matches nothing.
type Query struct {
	StudentID  string
	SubjectID  string
	StudentIDs []string
	From       time.Time
	To         time.Time
	Status     Status
	Order      Order
	Limit      int
}

func (q Query) empty() bool {
	return q.StudentIDs != nil && len(q.StudentIDs) == 0
}

// Store persists attendance records. Implementations must make Upsert
// atomic on the (student, subject, day) key: concurrent calls for one key
// leave exactly one record.
type Store interface {
	// Upsert creates rec, or overwrites the mutable fields of the record
	// already holding rec's key. It reports whether a record was created.
	Upsert(ctx context.Context, rec Record) (Record, bool, error)
	// Update overwrites the mutable fields of the record with id.
	Update(ctx context.Context, id string, ch Change) (Record, error)
	Find(ctx context.Context, q Query) ([]Record, error)
	Count(ctx context.Context, q Query) (int, error)
}
