// Package report reconciles the roster against the ledger.
//
// Each generator first decides who should have a record (class members or
// subject enrollees) and which days count, then left-joins ledger records
// onto that frame. Only records of rostered students are counted, so a row
// never reports more attendance than it has students or class days.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rollbook/internal/apperr"
	"rollbook/internal/attendance"
	"rollbook/internal/day"
	"rollbook/internal/metrics"
	"rollbook/internal/roster"
)

// DefaultMaxDays bounds a report range when Options.MaxDays is unset.
const DefaultMaxDays = 366

// Options configures a Generator.
type Options struct {
	Location *time.Location
	// HonorSchedule restricts subject days to the subject's schedule
	// weekdays. Subjects without schedule days meet every day.
	HonorSchedule bool
	// MaxDays is the longest range, in calendar days, a report may span.
	MaxDays int
	Cache   Cache
}

// Generator builds class, subject and student reports.
type Generator struct {
	ledger  attendance.Store
	people  roster.Provider
	loc     *time.Location
	honor   bool
	maxDays int
	cache   Cache
}

// NewGenerator creates a Generator.
func NewGenerator(ledger attendance.Store, people roster.Provider, opts Options) *Generator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Cache == nil {
		opts.Cache = NopCache{}
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = DefaultMaxDays
	}
	return &Generator{
		ledger:  ledger,
		people:  people,
		loc:     opts.Location,
		honor:   opts.HonorSchedule,
		maxDays: opts.MaxDays,
		cache:   opts.Cache,
	}
}

// span parses a report range and rejects one longer than the configured
// maximum before anything is read or enumerated.
func (g *Generator) span(op, startDate, endDate string) (day.Range, error) {
	r, err := day.ParseRange(startDate, endDate, g.loc)
	if err != nil {
		return day.Range{}, apperr.Invalid(op, err)
	}
	if n := r.Len(); n > g.maxDays {
		return day.Range{}, apperr.Validation(op, "date range spans %d days, at most %d allowed", n, g.maxDays)
	}
	return r, nil
}

// ClassRow is one subject of a class report.
type ClassRow struct {
	SubjectID            string  `json:"subject_id"`
	SubjectName          string  `json:"subject_name"`
	SubjectCode          string  `json:"subject_code"`
	ClassName            string  `json:"class_name"`
	TotalStudents        int     `json:"total_students"`
	PresentCount         int     `json:"present_count"`
	AbsentCount          int     `json:"absent_count"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// SubjectRow is one calendar day of a subject report.
type SubjectRow struct {
	Date                 string  `json:"date"`
	SubjectID            string  `json:"subject_id"`
	SubjectName          string  `json:"subject_name"`
	ClassName            string  `json:"class_name"`
	TotalStudents        int     `json:"total_students"`
	PresentCount         int     `json:"present_count"`
	AbsentCount          int     `json:"absent_count"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// StudentRow is one subject of a student report.
type StudentRow struct {
	StudentID            string  `json:"student_id"`
	StudentName          string  `json:"student_name"`
	StudentRollNumber    string  `json:"student_roll_number"`
	SubjectID            string  `json:"subject_id"`
	SubjectName          string  `json:"subject_name"`
	ClassName            string  `json:"class_name"`
	TotalClasses         int     `json:"total_classes"`
	PresentCount         int     `json:"present_count"`
	AbsentCount          int     `json:"absent_count"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// ClassReport returns one row per subject of class. PresentCount is the
// number of distinct class members with any record for the subject in range.
func (g *Generator) ClassReport(ctx context.Context, class, startDate, endDate string) ([]ClassRow, error) {
	const op = "getClassReport"
	r, err := g.span(op, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return cached(ctx, g, "class", class, r, "", func() ([]ClassRow, error) {
		return g.buildClass(ctx, op, class, r)
	})
}

func (g *Generator) buildClass(ctx context.Context, op, class string, r day.Range) ([]ClassRow, error) {
	students, err := g.people.FindStudentsByClass(ctx, class)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if len(students) == 0 {
		return nil, apperr.NotFound(op, "no students found in class %s", class)
	}
	subjects, err := g.people.FindSubjectsByClass(ctx, class)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	recs, err := g.ledger.Find(ctx, attendance.Query{StudentIDs: roster.IDs(students), From: r.Start, To: r.End})
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	attended := map[string]map[string]struct{}{}
	for _, rec := range recs {
		set, ok := attended[rec.SubjectID]
		if !ok {
			set = map[string]struct{}{}
			attended[rec.SubjectID] = set
		}
		set[rec.StudentID] = struct{}{}
	}

	total := len(students)
	rows := make([]ClassRow, 0, len(subjects))
	for _, sub := range subjects {
		present := len(attended[sub.ID])
		rows = append(rows, ClassRow{
			SubjectID:            sub.ID,
			SubjectName:          sub.Name,
			SubjectCode:          sub.Code,
			ClassName:            class,
			TotalStudents:        total,
			PresentCount:         present,
			AbsentCount:          total - present,
			AttendancePercentage: attendance.Percent(present, total),
		})
	}
	return rows, nil
}

// SubjectReport returns one row per meeting day of the subject in range,
// including days without records.
func (g *Generator) SubjectReport(ctx context.Context, subjectID, startDate, endDate string) ([]SubjectRow, error) {
	const op = "getSubjectReport"
	r, err := g.span(op, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return cached(ctx, g, "subject", subjectID, r, "", func() ([]SubjectRow, error) {
		return g.buildSubject(ctx, op, subjectID, r)
	})
}

func (g *Generator) buildSubject(ctx context.Context, op, subjectID string, r day.Range) ([]SubjectRow, error) {
	sub, err := g.findSubject(ctx, op, subjectID)
	if err != nil {
		return nil, err
	}
	students, err := g.people.FindStudentsBySubjectName(ctx, sub.Name)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if len(students) == 0 {
		return nil, apperr.NotFound(op, "no students found for subject %s", sub.Name)
	}
	recs, err := g.ledger.Find(ctx, attendance.Query{
		SubjectID:  sub.ID,
		StudentIDs: roster.IDs(students),
		From:       r.Start,
		To:         r.End,
	})
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	perDay := map[string]int{}
	for _, rec := range recs {
		perDay[day.Key(rec.Date)]++
	}

	className := sub.Class
	if className == "" {
		className = "N/A"
	}
	total := len(students)
	days := g.meetingDays(sub, r)
	rows := make([]SubjectRow, 0, len(days))
	for _, d := range days {
		k := day.Key(d)
		present := perDay[k]
		rows = append(rows, SubjectRow{
			Date:                 k,
			SubjectID:            sub.ID,
			SubjectName:          sub.Name,
			ClassName:            className,
			TotalStudents:        total,
			PresentCount:         present,
			AbsentCount:          total - present,
			AttendancePercentage: attendance.Percent(present, total),
		})
	}
	return rows, nil
}

// StudentReport returns one row per enrolled subject of the student, or a
// single row when subjectID is given.
func (g *Generator) StudentReport(ctx context.Context, studentID, startDate, endDate, subjectID string) ([]StudentRow, error) {
	const op = "getStudentReport"
	r, err := g.span(op, startDate, endDate)
	if err != nil {
		return nil, err
	}
	return cached(ctx, g, "student", studentID, r, subjectID, func() ([]StudentRow, error) {
		return g.buildStudent(ctx, op, studentID, subjectID, r)
	})
}

func (g *Generator) buildStudent(ctx context.Context, op, studentID, subjectID string, r day.Range) ([]StudentRow, error) {
	student, err := g.people.FindStudent(ctx, studentID)
	if errors.Is(err, roster.ErrNotFound) {
		return nil, apperr.NotFound(op, "student %s not found", studentID)
	}
	if err != nil {
		return nil, apperr.Storage(op, err)
	}

	var subjects []roster.Subject
	if subjectID != "" {
		sub, err := g.findSubject(ctx, op, subjectID)
		if err != nil {
			return nil, err
		}
		subjects = []roster.Subject{sub}
	} else {
		subjects, err = g.people.FindSubjectsByNames(ctx, student.Subjects)
		if err != nil {
			return nil, apperr.Storage(op, err)
		}
	}

	recs, err := g.ledger.Find(ctx, attendance.Query{StudentID: student.ID, SubjectID: subjectID, From: r.Start, To: r.End})
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	marked := map[string]map[string]bool{}
	for _, rec := range recs {
		set, ok := marked[rec.SubjectID]
		if !ok {
			set = map[string]bool{}
			marked[rec.SubjectID] = set
		}
		set[day.Key(rec.Date)] = true
	}

	rows := make([]StudentRow, 0, len(subjects))
	for _, sub := range subjects {
		days := g.meetingDays(sub, r)
		present := 0
		for _, d := range days {
			if marked[sub.ID][day.Key(d)] {
				present++
			}
		}
		total := len(days)
		rows = append(rows, StudentRow{
			StudentID:            student.ID,
			StudentName:          student.Name,
			StudentRollNumber:    student.RollNumber,
			SubjectID:            sub.ID,
			SubjectName:          sub.Name,
			ClassName:            student.Class,
			TotalClasses:         total,
			PresentCount:         present,
			AbsentCount:          total - present,
			AttendancePercentage: attendance.Percent(present, total),
		})
	}
	return rows, nil
}

// meetingDays is every day of r, or only the subject's scheduled weekdays
// when the generator honors schedules.
func (g *Generator) meetingDays(sub roster.Subject, r day.Range) []time.Time {
	if !g.honor {
		return r.Days()
	}
	return r.Filter(day.Weekdays(sub.Schedule.Days))
}

func (g *Generator) findSubject(ctx context.Context, op, id string) (roster.Subject, error) {
	sub, err := g.people.FindSubject(ctx, id)
	if errors.Is(err, roster.ErrNotFound) {
		return roster.Subject{}, apperr.NotFound(op, "subject %s not found", id)
	}
	if err != nil {
		return roster.Subject{}, apperr.Storage(op, err)
	}
	return sub, nil
}

// cached serves build through the report cache. The key embeds the scope's
// current version, so a bumped version makes older entries unreachable.
func cached[T any](ctx context.Context, g *Generator, kind, scope string, r day.Range, extra string, build func() (T, error)) (T, error) {
	key := fmt.Sprintf("report:%s:%s:v%d:%s:%s:%s:%t",
		kind, scope, g.cache.Version(ctx, kind+":"+scope), day.Key(r.Start), day.Key(r.End), extra, g.honor)

	var out T
	if g.cache.Load(ctx, key, &out) {
		metrics.Reports.WithLabelValues(kind, "hit").Inc()
		return out, nil
	}

	start := time.Now()
	out, err := build()
	if err != nil {
		return out, err
	}
	metrics.ReportDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.Reports.WithLabelValues(kind, "miss").Inc()
	g.cache.Store(ctx, key, out)
	return out, nil
}
