package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("report: %w", NotFound("getSubjectReport", "subject %s not found", "s1"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "subject s1 not found", Message(err))
}

func TestStorageHidesDriverText(t *testing.T) {
	err := Storage("recordAttendance", errors.New("pq: connection refused"))
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, "storage failure", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStorageKeepsUnderlyingCause(t *testing.T) {
	err := Storage("getAttendance", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, Storage("noop", nil))
}

func TestStorageDoesNotRewrapKinds(t *testing.T) {
	nf := NotFound("findStudent", "student not found")
	assert.Same(t, nf, Storage("recordAttendance", nf))
}

func TestInvalidExposesCause(t *testing.T) {
	err := Invalid("getAttendanceStats", errors.New("end date is before start date"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "end date is before start date", Message(err))
	assert.Equal(t, "internal error", Message(errors.New("boom")))
}
