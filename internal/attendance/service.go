package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"rollbook/internal/apperr"
	"rollbook/internal/day"
	"rollbook/internal/metrics"
	"rollbook/internal/roster"
)

// RecentLimit caps the recent check-ins feed.
const RecentLimit = 10

// Options configures a Service. Zero values pick UTC and the wall clock.
// Events and Invalidator are optional.
type Options struct {
	Location    *time.Location
	Now         func() time.Time
	Events      Publisher
	Invalidator Invalidator
}

// Service is the attendance ledger: the idempotent write path and the
// filtered reads over it.
type Service struct {
	store    Store
	people   roster.Provider
	loc      *time.Location
	now      func() time.Time
	events   Publisher
	caches   Invalidator
	validate *validator.Validate
}

// NewService creates a ledger over store, resolving identities via people.
func NewService(store Store, people roster.Provider, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{
		store:    store,
		people:   people,
		loc:      opts.Location,
		now:      opts.Now,
		events:   opts.Events,
		caches:   opts.Invalidator,
		validate: v,
	}
}

// MarkInput is a recordAttendance request. Date may carry a time of day; it
// is discarded.
type MarkInput struct {
	StudentID   string `json:"student_id" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Status      Status `json:"status" validate:"required,oneof=present absent"`
	ArrivalTime string `json:"arrival_time" validate:"max=32"`
	Notes       string `json:"notes" validate:"max=2000"`
	MarkedBy    string `json:"marked_by" validate:"required"`
}

// UpdateInput is an updateAttendance request.
type UpdateInput struct {
	Status      Status `json:"status" validate:"required,oneof=present absent"`
	ArrivalTime string `json:"arrival_time" validate:"max=32"`
	Notes       string `json:"notes" validate:"max=2000"`
	MarkedBy    string `json:"marked_by" validate:"required"`
}

// RecordAttendance creates the record for (student, subject, day) or
// overwrites the existing one. created reports which happened.
func (s *Service) RecordAttendance(ctx context.Context, in MarkInput) (View, bool, error) {
	const op = "recordAttendance"
	if err := s.check(op, in); err != nil {
		return View{}, false, err
	}
	date, err := day.Parse(in.Date, s.loc)
	if err != nil {
		return View{}, false, apperr.Invalid(op, fmt.Errorf("date: %w", err))
	}
	student, err := s.findStudent(ctx, op, in.StudentID)
	if err != nil {
		return View{}, false, err
	}
	subject, err := s.findSubject(ctx, op, in.SubjectID)
	if err != nil {
		return View{}, false, err
	}

	saved, created, err := s.store.Upsert(ctx, Record{
		StudentID:   student.ID,
		SubjectID:   subject.ID,
		Date:        date,
		Status:      in.Status,
		ArrivalTime: arrival(in.Status, in.ArrivalTime),
		Notes:       strings.TrimSpace(in.Notes),
		MarkedBy:    in.MarkedBy,
	})
	if err != nil {
		return View{}, false, apperr.Storage(op, err)
	}
	metrics.ObserveMark(created)
	s.written(ctx, newMarkedEvent(saved, student.Class, created))

	return View{Record: saved, Student: studentRef(student), Subject: subjectRef(subject)}, created, nil
}

// UpdateAttendance overwrites the mutable fields of the record with id.
func (s *Service) UpdateAttendance(ctx context.Context, id string, in UpdateInput) (View, error) {
	const op = "updateAttendance"
	if strings.TrimSpace(id) == "" {
		return View{}, apperr.Validation(op, "record id is required")
	}
	if err := s.check(op, in); err != nil {
		return View{}, err
	}
	rec, err := s.store.Update(ctx, id, Change{
		Status:      in.Status,
		ArrivalTime: arrival(in.Status, in.ArrivalTime),
		Notes:       strings.TrimSpace(in.Notes),
		MarkedBy:    in.MarkedBy,
	})
	if errors.Is(err, ErrRecordNotFound) {
		return View{}, apperr.NotFound(op, "attendance record %s not found", id)
	}
	if err != nil {
		return View{}, apperr.Storage(op, err)
	}
	metrics.ObserveMark(false)

	views, err := s.resolve(ctx, op, []Record{rec})
	if err != nil {
		return View{}, err
	}
	class := ""
	if views[0].Student != nil {
		class = views[0].Student.Class
	}
	s.written(ctx, newMarkedEvent(rec, class, false))
	return views[0], nil
}

// Filter narrows GetAttendance. Date wins over StartDate/EndDate, which must
// be given together.
type Filter struct {
	Date      string
	StartDate string
	EndDate   string
	SubjectID string
	Class     string
}

// GetAttendance returns the records matching f with identities resolved.
func (s *Service) GetAttendance(ctx context.Context, f Filter) (Listing, error) {
	const op = "getAttendance"
	q := Query{SubjectID: f.SubjectID}
	if err := s.applyDates(&q, f.Date, f.StartDate, f.EndDate); err != nil {
		return Listing{}, apperr.Invalid(op, err)
	}
	if f.Class != "" {
		ids, err := s.classIDs(ctx, op, f.Class)
		if err != nil {
			return Listing{}, err
		}
		q.StudentIDs = ids
	}
	return s.list(ctx, op, q)
}

// StudentFilter narrows GetAttendanceByStudent.
type StudentFilter struct {
	StartDate string
	EndDate   string
	SubjectID string
}

// GetAttendanceByStudent returns one student's records, newest day first.
func (s *Service) GetAttendanceByStudent(ctx context.Context, studentID string, f StudentFilter) (Listing, error) {
	const op = "getAttendanceByStudent"
	if _, err := s.findStudent(ctx, op, studentID); err != nil {
		return Listing{}, err
	}
	q := Query{StudentID: studentID, SubjectID: f.SubjectID, Order: OrderDateDesc}
	if err := s.applyDates(&q, "", f.StartDate, f.EndDate); err != nil {
		return Listing{}, apperr.Invalid(op, err)
	}
	return s.list(ctx, op, q)
}

// SubjectFilter narrows GetAttendanceBySubject.
type SubjectFilter struct {
	Date  string
	Class string
}

// GetAttendanceBySubject returns one subject's records, newest day first.
func (s *Service) GetAttendanceBySubject(ctx context.Context, subjectID string, f SubjectFilter) (Listing, error) {
	const op = "getAttendanceBySubject"
	if _, err := s.findSubject(ctx, op, subjectID); err != nil {
		return Listing{}, err
	}
	q := Query{SubjectID: subjectID, Order: OrderDateDesc}
	if err := s.applyDates(&q, f.Date, "", ""); err != nil {
		return Listing{}, apperr.Invalid(op, err)
	}
	if f.Class != "" {
		ids, err := s.classIDs(ctx, op, f.Class)
		if err != nil {
			return Listing{}, err
		}
		q.StudentIDs = ids
	}
	return s.list(ctx, op, q)
}

// GetRecentCheckins returns the latest present marks dated today or later.
func (s *Service) GetRecentCheckins(ctx context.Context) ([]View, error) {
	const op = "getRecentCheckins"
	recs, err := s.store.Find(ctx, Query{
		From:   day.Today(s.now(), s.loc),
		Status: StatusPresent,
		Order:  OrderCreatedDesc,
		Limit:  RecentLimit,
	})
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return s.resolve(ctx, op, recs)
}

func (s *Service) list(ctx context.Context, op string, q Query) (Listing, error) {
	recs, err := s.store.Find(ctx, q)
	if err != nil {
		return Listing{}, apperr.Storage(op, err)
	}
	views, err := s.resolve(ctx, op, recs)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Count: len(views), Records: views}, nil
}

func (s *Service) applyDates(q *Query, date, start, end string) error {
	if date != "" {
		d, err := day.Parse(date, s.loc)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		q.From, q.To = d, d
		return nil
	}
	if start == "" && end == "" {
		return nil
	}
	r, err := day.ParseRange(start, end, s.loc)
	if err != nil {
		return err
	}
	q.From, q.To = r.Start, r.End
	return nil
}

func (s *Service) classIDs(ctx context.Context, op, class string) ([]string, error) {
	students, err := s.people.FindStudentsByClass(ctx, class)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return roster.IDs(students), nil
}

func (s *Service) findStudent(ctx context.Context, op, id string) (roster.Student, error) {
	st, err := s.people.FindStudent(ctx, id)
	if errors.Is(err, roster.ErrNotFound) {
		return roster.Student{}, apperr.NotFound(op, "student %s not found", id)
	}
	if err != nil {
		return roster.Student{}, apperr.Storage(op, err)
	}
	return st, nil
}

func (s *Service) findSubject(ctx context.Context, op, id string) (roster.Subject, error) {
	sub, err := s.people.FindSubject(ctx, id)
	if errors.Is(err, roster.ErrNotFound) {
		return roster.Subject{}, apperr.NotFound(op, "subject %s not found", id)
	}
	if err != nil {
		return roster.Subject{}, apperr.Storage(op, err)
	}
	return sub, nil
}

// resolve attaches roster identities, looking each id up once.
func (s *Service) resolve(ctx context.Context, op string, recs []Record) ([]View, error) {
	students := map[string]*StudentRef{}
	subjects := map[string]*SubjectRef{}
	out := make([]View, 0, len(recs))
	for _, rec := range recs {
		st, ok := students[rec.StudentID]
		if !ok {
			found, err := s.people.FindStudent(ctx, rec.StudentID)
			switch {
			case err == nil:
				st = studentRef(found)
			case !errors.Is(err, roster.ErrNotFound):
				return nil, apperr.Storage(op, err)
			}
			students[rec.StudentID] = st
		}
		sub, ok := subjects[rec.SubjectID]
		if !ok {
			found, err := s.people.FindSubject(ctx, rec.SubjectID)
			switch {
			case err == nil:
				sub = subjectRef(found)
			case !errors.Is(err, roster.ErrNotFound):
				return nil, apperr.Storage(op, err)
			}
			subjects[rec.SubjectID] = sub
		}
		out = append(out, View{Record: rec, Student: st, Subject: sub})
	}
	return out, nil
}

// written invalidates local caches for e, then publishes it for other
// processes. Neither failure fails the write.
func (s *Service) written(ctx context.Context, e MarkedEvent) {
	if s.caches != nil {
		if err := s.caches.Invalidate(ctx, e); err != nil {
			log.Printf("invalidate caches for %s failed: %v", e.RecordID, err)
		}
	}
	s.publish(ctx, e)
}

func (s *Service) publish(ctx context.Context, e MarkedEvent) {
	if s.events == nil {
		return
	}
	msg, err := e.Message()
	if err == nil {
		err = s.events.Publish(ctx, msg)
	}
	if err != nil {
		log.Printf("publish %s for %s failed: %v", EventMarked, e.RecordID, err)
	}
}

func (s *Service) check(op string, in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalid(op, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "oneof":
			msgs = append(msgs, fe.Field()+" must be one of: "+fe.Param())
		case "max":
			msgs = append(msgs, fe.Field()+" is too long")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return apperr.Invalid(op, errors.New(strings.Join(msgs, "; ")))
}

// arrival keeps the arrival time only for present marks.
func arrival(st Status, at string) *string {
	at = strings.TrimSpace(at)
	if st != StatusPresent || at == "" {
		return nil
	}
	return &at
}

func studentRef(s roster.Student) *StudentRef {
	return &StudentRef{ID: s.ID, RollNumber: s.RollNumber, Name: s.Name, Class: s.Class, Course: s.Course}
}

func subjectRef(s roster.Subject) *SubjectRef {
	return &SubjectRef{ID: s.ID, Code: s.Code, Name: s.Name}
}
