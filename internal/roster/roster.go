// Package roster is the read side of student and subject master data.
// The ledger never mutates roster entities; it only resolves them.
package roster

import (
	"context"
	"errors"
)

// ErrNotFound is returned by single-entity lookups.
var ErrNotFound = errors.New("roster: not found")

// Student is an enrolled learner. Subject membership is by subject name.
type Student struct {
	ID         string   `json:"id"`
	RollNumber string   `json:"roll_number"`
	Name       string   `json:"name"`
	Year       string   `json:"year,omitempty"`
	Class      string   `json:"class"`
	Course     string   `json:"course"`
	Subjects   []string `json:"subjects"`
	Status     string   `json:"status"`
}

// Enrolled reports whether the student takes the named subject.
func (s Student) Enrolled(subjectName string) bool {
	for _, n := range s.Subjects {
		if n == subjectName {
			return true
		}
	}
	return false
}

// Schedule is the weekly meeting pattern of a subject.
type Schedule struct {
	Days      []string `json:"days"`
	TimeStart string   `json:"time_start"`
	TimeEnd   string   `json:"time_end"`
}

// Subject is a course taught to a class.
type Subject struct {
	ID               string   `json:"id"`
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Faculty          string   `json:"faculty"`
	FacultyID        string   `json:"faculty_id"`
	Class            string   `json:"class"`
	Schedule         Schedule `json:"schedule"`
	Room             string   `json:"room"`
	EnrolledStudents int      `json:"enrolled_students"`
	Status           string   `json:"status"`
}

// Provider is the roster lookup surface used by the ledger and reports.
// FindStudent and FindSubject return ErrNotFound for unknown ids; list
// lookups return an empty slice.
type Provider interface {
	FindStudent(ctx context.Context, id string) (Student, error)
	FindStudentsByClass(ctx context.Context, class string) ([]Student, error)
	FindStudentsBySubjectName(ctx context.Context, name string) ([]Student, error)
	FindSubject(ctx context.Context, id string) (Subject, error)
	FindSubjectsByClass(ctx context.Context, class string) ([]Subject, error)
	FindSubjectsByNames(ctx context.Context, names []string) ([]Subject, error)
	CountStudents(ctx context.Context) (int, error)
	CountSubjects(ctx context.Context) (int, error)
}

// IDs returns the ids of students.
func IDs(students []Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return out
}
