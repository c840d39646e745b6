package attendance

import (
	"time"

	"rollbook/internal/day"
)

// Status is the attendance decision for one key.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is a supported status.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Record is one attendance decision for one student, in one subject, on one
// calendar day. Date is always a normalized day.
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	SubjectID   string    `json:"subject_id"`
	Date        time.Time `json:"date"`
	Status      Status    `json:"status"`
	ArrivalTime *string   `json:"arrival_time"`
	Notes       string    `json:"notes"`
	MarkedBy    string    `json:"marked_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key identifies the unique slot a record occupies.
type Key struct {
	StudentID string
	SubjectID string
	Date      string
}

// Key returns the record's (student, subject, day) key.
func (r Record) Key() Key {
	return Key{StudentID: r.StudentID, SubjectID: r.SubjectID, Date: day.Key(r.Date)}
}

// Change is the mutable part of a record.
type Change struct {
	Status      Status
	ArrivalTime *string
	Notes       string
	MarkedBy    string
}

func (c Change) apply(r *Record) {
	r.Status = c.Status
	r.ArrivalTime = c.ArrivalTime
	r.Notes = c.Notes
	r.MarkedBy = c.MarkedBy
}

// StudentRef is the display identity of a record's student.
type StudentRef struct {
	ID         string `json:"id"`
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Class      string `json:"class"`
	Course     string `json:"course"`
}

// SubjectRef is the display identity of a record's subject.
type SubjectRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// View is a record with its roster identities resolved. A ref is nil when
// the roster entity no longer exists.
type View struct {
	Record
	Student *StudentRef `json:"student,omitempty"`
	Subject *SubjectRef `json:"subject,omitempty"`
}

// Listing is the read response shape.
type Listing struct {
	Count   int    `json:"count"`
	Records []View `json:"records"`
}

// Percent returns n/d*100, or 0 when d is not positive.
func Percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
