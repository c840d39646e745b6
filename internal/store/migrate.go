package store

import (
	"context"
	"database/sql"
)

// schema creates the roster tables read by roster.Postgres and the ledger
// table. uq_attendance_key is the compound (student, subject, day)
// constraint the ledger upsert targets.
const schema = `
CREATE TABLE IF NOT EXISTS students (
	id          TEXT PRIMARY KEY,
	roll_number TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	year        TEXT NOT NULL DEFAULT '',
	class       TEXT NOT NULL,
	course      TEXT NOT NULL DEFAULT '',
	subjects    TEXT[] NOT NULL DEFAULT '{}',
	status      TEXT NOT NULL DEFAULT 'active',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_students_class ON students (class);
CREATE INDEX IF NOT EXISTS idx_students_subjects ON students USING GIN (subjects);

CREATE TABLE IF NOT EXISTS subjects (
	id                TEXT PRIMARY KEY,
	code              TEXT NOT NULL UNIQUE,
	name              TEXT NOT NULL,
	faculty           TEXT NOT NULL DEFAULT '',
	faculty_id        TEXT NOT NULL DEFAULT '',
	class             TEXT NOT NULL DEFAULT '',
	schedule_days     TEXT[] NOT NULL DEFAULT '{}',
	time_start        TEXT NOT NULL DEFAULT '',
	time_end          TEXT NOT NULL DEFAULT '',
	room              TEXT NOT NULL DEFAULT '',
	enrolled_students INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'active',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_subjects_class ON subjects (class);

CREATE TABLE IF NOT EXISTS attendance_records (
	id           UUID PRIMARY KEY,
	student_id   TEXT NOT NULL REFERENCES students(id),
	subject_id   TEXT NOT NULL REFERENCES subjects(id),
	date         DATE NOT NULL,
	status       TEXT NOT NULL CHECK (status IN ('present', 'absent')),
	arrival_time TEXT,
	notes        TEXT NOT NULL DEFAULT '',
	marked_by    TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uq_attendance_key UNIQUE (student_id, subject_id, date)
);
CREATE INDEX IF NOT EXISTS idx_attendance_subject_date ON attendance_records (subject_id, date);
CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance_records (date);
CREATE INDEX IF NOT EXISTS idx_attendance_created ON attendance_records (created_at DESC) WHERE status = 'present';
`

// Migrate applies the schema idempotently.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
