package attendance

import (
	"context"
	"encoding/json"
	"time"

	"rollbook/internal/day"
	"rollbook/internal/queue"
)

// EventMarked is published after every successful ledger write.
const EventMarked = "attendance.marked"

// MarkedEvent describes a ledger write. Class is the student's class at the
// time of the write.
type MarkedEvent struct {
	RecordID  string    `json:"record_id"`
	StudentID string    `json:"student_id"`
	SubjectID string    `json:"subject_id"`
	Class     string    `json:"class"`
	Date      string    `json:"date"`
	Status    Status    `json:"status"`
	Created   bool      `json:"created"`
	At        time.Time `json:"at"`
}

// Invalidator drops cached views derived from the scopes e touches. It runs
// before a write returns, so reads that follow the write never see stale data.
type Invalidator interface {
	Invalidate(ctx context.Context, e MarkedEvent) error
}

// Publisher is the outbound side of a queue.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

func newMarkedEvent(rec Record, class string, created bool) MarkedEvent {
	return MarkedEvent{
		RecordID:  rec.ID,
		StudentID: rec.StudentID,
		SubjectID: rec.SubjectID,
		Class:     class,
		Date:      day.Key(rec.Date),
		Status:    rec.Status,
		Created:   created,
		At:        rec.UpdatedAt,
	}
}

// Message encodes e for the queue.
func (e MarkedEvent) Message() (queue.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return queue.Message{}, err
	}
	return queue.Message{Type: EventMarked, Body: body}, nil
}

// DecodeMarked reads a MarkedEvent from a queue message body.
func DecodeMarked(msg queue.Message) (MarkedEvent, error) {
	var e MarkedEvent
	err := json.Unmarshal(msg.Body, &e)
	return e, err
}
