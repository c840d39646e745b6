package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, student_id, subject_id, date, status, arrival_time, notes, marked_by, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var r Record
	var arrival sql.NullString
	if err := row.Scan(&r.ID, &r.StudentID, &r.SubjectID, &r.Date, &r.Status, &arrival,
		&r.Notes, &r.MarkedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	if arrival.Valid {
		r.ArrivalTime = &arrival.String
	}
	r.Date = r.Date.UTC()
	return r, nil
}

// Upsert writes rec in one statement against uq_attendance_key. xmax is zero
// only for a freshly inserted row version, which tells create from update.
func (r *Repository) Upsert(ctx context.Context, rec Record) (Record, bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, student_id, subject_id, date, status, arrival_time, notes, marked_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT uq_attendance_key DO UPDATE SET
			status = EXCLUDED.status,
			arrival_time = EXCLUDED.arrival_time,
			notes = EXCLUDED.notes,
			marked_by = EXCLUDED.marked_by,
			updated_at = NOW()
		RETURNING `+recordColumns+`, (xmax = 0) AS inserted
	`, rec.ID, rec.StudentID, rec.SubjectID, rec.Date, string(rec.Status), rec.ArrivalTime, rec.Notes, rec.MarkedBy)

	var out Record
	var arrival sql.NullString
	var inserted bool
	if err := row.Scan(&out.ID, &out.StudentID, &out.SubjectID, &out.Date, &out.Status, &arrival,
		&out.Notes, &out.MarkedBy, &out.CreatedAt, &out.UpdatedAt, &inserted); err != nil {
		return Record{}, false, err
	}
	if arrival.Valid {
		out.ArrivalTime = &arrival.String
	}
	out.Date = out.Date.UTC()
	return out, inserted, nil
}

// Update overwrites the mutable fields of one record.
func (r *Repository) Update(ctx context.Context, id string, ch Change) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrRecordNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET status = $2, arrival_time = $3, notes = $4, marked_by = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+recordColumns, id, string(ch.Status), ch.ArrivalTime, ch.Notes, ch.MarkedBy)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

// Find returns records matching q.
func (r *Repository) Find(ctx context.Context, q Query) ([]Record, error) {
	out := []Record{}
	if q.empty() {
		return out, nil
	}
	where, args := buildWhere(q)
	query := `SELECT ` + recordColumns + ` FROM attendance_records` + where
	switch q.Order {
	case OrderDateDesc:
		query += ` ORDER BY date DESC, created_at DESC`
	case OrderCreatedDesc:
		query += ` ORDER BY created_at DESC`
	default:
		query += ` ORDER BY date, created_at`
	}
	if q.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1)
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of records matching q.
func (r *Repository) Count(ctx context.Context, q Query) (int, error) {
	if q.empty() {
		return 0, nil
	}
	where, args := buildWhere(q)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_records`+where, args...).Scan(&n)
	return n, err
}

func buildWhere(q Query) (string, []any) {
	args := []any{}
	clauses := []string{}
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if q.StudentID != "" {
		add("student_id = ?", q.StudentID)
	}
	if q.SubjectID != "" {
		add("subject_id = ?", q.SubjectID)
	}
	if q.StudentIDs != nil {
		add("student_id = ANY(?)", q.StudentIDs)
	}
	if !q.From.IsZero() {
		add("date >= ?", q.From)
	}
	if !q.To.IsZero() {
		add("date <= ?", q.To)
	}
	if q.Status != "" {
		add("status = ?", string(q.Status))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
