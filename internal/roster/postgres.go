package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Postgres reads the roster tables. Rows are written by the roster owner.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a provider over db.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const studentColumns = `id, roll_number, name, year, class, course,
	COALESCE(array_to_json(subjects), '[]')::text, status`

const subjectColumns = `id, code, name, faculty, faculty_id, class,
	COALESCE(array_to_json(schedule_days), '[]')::text, time_start, time_end,
	room, enrolled_students, status`

type rowScanner interface {
	Scan(dest ...any) error
}

// textList scans a JSON array of strings rendered by array_to_json.
type textList []string

func (l *textList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("textList: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func scanStudent(row rowScanner) (Student, error) {
	var s Student
	var subjects textList
	if err := row.Scan(&s.ID, &s.RollNumber, &s.Name, &s.Year, &s.Class, &s.Course, &subjects, &s.Status); err != nil {
		return Student{}, err
	}
	s.Subjects = []string(subjects)
	return s, nil
}

func scanSubject(row rowScanner) (Subject, error) {
	var s Subject
	var days textList
	if err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Faculty, &s.FacultyID, &s.Class,
		&days, &s.Schedule.TimeStart, &s.Schedule.TimeEnd, &s.Room, &s.EnrolledStudents, &s.Status); err != nil {
		return Subject{}, err
	}
	s.Schedule.Days = []string(days)
	return s, nil
}

func (p *Postgres) FindStudent(ctx context.Context, id string) (Student, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return s, err
}

func (p *Postgres) FindStudentsByClass(ctx context.Context, class string) ([]Student, error) {
	return p.queryStudents(ctx, `SELECT `+studentColumns+` FROM students WHERE class = $1 ORDER BY roll_number`, class)
}

func (p *Postgres) FindStudentsBySubjectName(ctx context.Context, name string) ([]Student, error) {
	return p.queryStudents(ctx, `SELECT `+studentColumns+` FROM students WHERE $1 = ANY(subjects) ORDER BY roll_number`, name)
}

func (p *Postgres) FindSubject(ctx context.Context, id string) (Subject, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id)
	s, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Subject{}, ErrNotFound
	}
	return s, err
}

func (p *Postgres) FindSubjectsByClass(ctx context.Context, class string) ([]Subject, error) {
	return p.querySubjects(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE class = $1 ORDER BY code`, class)
}

func (p *Postgres) FindSubjectsByNames(ctx context.Context, names []string) ([]Subject, error) {
	if len(names) == 0 {
		return []Subject{}, nil
	}
	return p.querySubjects(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE name = ANY($1) ORDER BY code`, names)
}

func (p *Postgres) CountStudents(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&n)
	return n, err
}

func (p *Postgres) CountSubjects(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subjects`).Scan(&n)
	return n, err
}

func (p *Postgres) queryStudents(ctx context.Context, query string, args ...any) ([]Student, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) querySubjects(ctx context.Context, query string, args ...any) ([]Subject, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
