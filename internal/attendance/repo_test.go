package attendance

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbook/internal/roster"
	"rollbook/internal/store"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and seeds a
// small roster. Each test starts with an empty ledger.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := store.NewDB(url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx, db.Client))
	_, err = db.Client.ExecContext(ctx, `TRUNCATE attendance_records`)
	require.NoError(t, err)
	_, err = db.Client.ExecContext(ctx, `
		INSERT INTO students (id, roll_number, name, class, course, subjects) VALUES
			('s1', 'R001', 'Ada', 'A', 'BSc', ARRAY['Math']),
			('s2', 'R002', 'Brian', 'A', 'BSc', ARRAY['Math', 'Physics'])
		ON CONFLICT (id) DO NOTHING`)
	require.NoError(t, err)
	_, err = db.Client.ExecContext(ctx, `
		INSERT INTO subjects (id, code, name, class, schedule_days, time_start, time_end) VALUES
			('math', 'MTH101', 'Math', 'A', ARRAY['Monday', 'Wednesday'], '09:00', '10:00'),
			('phy', 'PHY101', 'Physics', 'A', '{}', '11:00', '12:00')
		ON CONFLICT (id) DO NOTHING`)
	require.NoError(t, err)
	return db.Client
}

func TestRepositoryUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	at := "09:05"

	first, created, err := repo.Upsert(ctx, Record{StudentID: "s1", SubjectID: "math", Date: d, Status: StatusPresent, ArrivalTime: &at, MarkedBy: "u1"})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first.ArrivalTime)
	assert.Equal(t, d, first.Date)

	second, created, err := repo.Upsert(ctx, Record{StudentID: "s1", SubjectID: "math", Date: d, Status: StatusAbsent, Notes: "sick", MarkedBy: "u2"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, StatusAbsent, second.Status)
	assert.Nil(t, second.ArrivalTime)
	assert.Equal(t, "sick", second.Notes)

	n, err := repo.Count(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepositoryConcurrentUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	d := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := StatusPresent
			if i%2 == 1 {
				st = StatusAbsent
			}
			_, _, err := repo.Upsert(ctx, Record{StudentID: "s2", SubjectID: "phy", Date: d, Status: st, MarkedBy: "u"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	recs, err := repo.Find(ctx, Query{StudentID: "s2", SubjectID: "phy"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Status.Valid())
}

func TestRepositoryFindAndUpdate(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	r1, _, err := repo.Upsert(ctx, Record{StudentID: "s1", SubjectID: "math", Date: d1, Status: StatusPresent, MarkedBy: "u"})
	require.NoError(t, err)
	_, _, err = repo.Upsert(ctx, Record{StudentID: "s2", SubjectID: "math", Date: d2, Status: StatusAbsent, MarkedBy: "u"})
	require.NoError(t, err)

	recs, err := repo.Find(ctx, Query{SubjectID: "math", Order: OrderDateDesc})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, d2, recs[0].Date)

	recs, err = repo.Find(ctx, Query{StudentIDs: []string{"s1"}, From: d1, To: d1, Status: StatusPresent})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	recs, err = repo.Find(ctx, Query{StudentIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, recs)

	updated, err := repo.Update(ctx, r1.ID, Change{Status: StatusAbsent, Notes: "corrected", MarkedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, updated.Status)
	assert.Equal(t, r1.CreatedAt, updated.CreatedAt)

	_, err = repo.Update(ctx, "not-a-uuid", Change{Status: StatusAbsent, MarkedBy: "admin"})
	assert.ErrorIs(t, err, ErrRecordNotFound)
	_, err = repo.Update(ctx, "7f9c1a0e-3c1b-4c55-9d59-9b1f3f0f1a11", Change{Status: StatusAbsent, MarkedBy: "admin"})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPostgresRoster(t *testing.T) {
	db := openTestDB(t)
	people := roster.NewPostgres(db)
	ctx := context.Background()

	s, err := people.FindStudent(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Math", "Physics"}, s.Subjects)

	_, err = people.FindStudent(ctx, "ghost")
	assert.ErrorIs(t, err, roster.ErrNotFound)

	physics, err := people.FindStudentsBySubjectName(ctx, "Physics")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, roster.IDs(physics))

	sub, err := people.FindSubject(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Wednesday"}, sub.Schedule.Days)

	subs, err := people.FindSubjectsByNames(ctx, []string{"Physics"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Empty(t, subs[0].Schedule.Days)
}
