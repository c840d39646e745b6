package roster

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Provider for dev and tests.
type Memory struct {
	mu       sync.RWMutex
	students map[string]Student
	subjects map[string]Subject
}

// NewMemory creates an empty roster.
func NewMemory() *Memory {
	return &Memory{
		students: make(map[string]Student),
		subjects: make(map[string]Subject),
	}
}

// PutStudent inserts or replaces a student.
func (m *Memory) PutStudent(s Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
}

// PutSubject inserts or replaces a subject.
func (m *Memory) PutSubject(s Subject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[s.ID] = s
}

func (m *Memory) FindStudent(_ context.Context, id string) (Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) FindStudentsByClass(_ context.Context, class string) ([]Student, error) {
	return m.filterStudents(func(s Student) bool { return s.Class == class }), nil
}

func (m *Memory) FindStudentsBySubjectName(_ context.Context, name string) ([]Student, error) {
	return m.filterStudents(func(s Student) bool { return s.Enrolled(name) }), nil
}

func (m *Memory) FindSubject(_ context.Context, id string) (Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subjects[id]
	if !ok {
		return Subject{}, ErrNotFound
	}
	return s, nil
}

func (m *Memory) FindSubjectsByClass(_ context.Context, class string) ([]Subject, error) {
	return m.filterSubjects(func(s Subject) bool { return s.Class == class }), nil
}

func (m *Memory) FindSubjectsByNames(_ context.Context, names []string) ([]Subject, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	return m.filterSubjects(func(s Subject) bool { return want[s.Name] }), nil
}

func (m *Memory) CountStudents(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

func (m *Memory) CountSubjects(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subjects), nil
}

func (m *Memory) filterStudents(keep func(Student) bool) []Student {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Student{}
	for _, s := range m.students {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out
}

func (m *Memory) filterSubjects(keep func(Subject) bool) []Subject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Subject{}
	for _, s := range m.subjects {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
