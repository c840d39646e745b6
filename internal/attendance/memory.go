package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded Store for dev and tests. The key index is
// checked and written under one lock, so Upsert is a compare-and-swap.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[Key]*Record
	byID  map[string]*Record
	now   func() time.Time
	last  time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[Key]*Record),
		byID:  make(map[string]*Record),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Upsert(_ context.Context, rec Record) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.tick()
	if cur, ok := m.byKey[rec.Key()]; ok {
		Change{Status: rec.Status, ArrivalTime: rec.ArrivalTime, Notes: rec.Notes, MarkedBy: rec.MarkedBy}.apply(cur)
		cur.UpdatedAt = now
		return clone(*cur), false, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	stored := clone(rec)
	m.byKey[rec.Key()] = &stored
	m.byID[rec.ID] = &stored
	return clone(stored), true, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, ch Change) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	ch.apply(cur)
	cur.UpdatedAt = m.tick()
	return clone(*cur), nil
}

func (m *MemoryStore) Find(_ context.Context, q Query) ([]Record, error) {
	out := []Record{}
	if q.empty() {
		return out, nil
	}
	m.mu.RLock()
	match := matcher(q)
	for _, r := range m.byID {
		if match(r) {
			out = append(out, clone(*r))
		}
	}
	m.mu.RUnlock()

	sortRecords(out, q.Order)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Count(ctx context.Context, q Query) (int, error) {
	q.Limit = 0
	recs, err := m.Find(ctx, q)
	return len(recs), err
}

// tick returns a strictly increasing timestamp so creation order is total.
// Callers hold mu.
func (m *MemoryStore) tick() time.Time {
	now := m.now()
	if !now.After(m.last) {
		now = m.last.Add(time.Microsecond)
	}
	m.last = now
	return now
}

// Len is the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func matcher(q Query) func(*Record) bool {
	var ids map[string]bool
	if q.StudentIDs != nil {
		ids = make(map[string]bool, len(q.StudentIDs))
		for _, id := range q.StudentIDs {
			ids[id] = true
		}
	}
	return func(r *Record) bool {
		switch {
		case q.StudentID != "" && r.StudentID != q.StudentID:
			return false
		case q.SubjectID != "" && r.SubjectID != q.SubjectID:
			return false
		case ids != nil && !ids[r.StudentID]:
			return false
		case !q.From.IsZero() && r.Date.Before(q.From):
			return false
		case !q.To.IsZero() && r.Date.After(q.To):
			return false
		case q.Status != "" && r.Status != q.Status:
			return false
		}
		return true
	}
}

func sortRecords(recs []Record, o Order) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch o {
		case OrderDateDesc:
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.CreatedAt.After(b.CreatedAt)
		case OrderCreatedDesc:
			return a.CreatedAt.After(b.CreatedAt)
		default:
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

func clone(r Record) Record {
	if r.ArrivalTime != nil {
		at := *r.ArrivalTime
		r.ArrivalTime = &at
	}
	return r
}
