package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveMark(t *testing.T) {
	created := testutil.ToFloat64(AttendanceMarks.WithLabelValues("created"))
	updated := testutil.ToFloat64(AttendanceMarks.WithLabelValues("updated"))

	ObserveMark(true)
	ObserveMark(false)
	ObserveMark(false)

	assert.Equal(t, created+1, testutil.ToFloat64(AttendanceMarks.WithLabelValues("created")))
	assert.Equal(t, updated+2, testutil.ToFloat64(AttendanceMarks.WithLabelValues("updated")))
}
