package day

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCollapsesTimeOfDay(t *testing.T) {
	morning, err := Parse("2024-03-01T08:00:00", time.UTC)
	require.NoError(t, err)
	night, err := Parse("2024-03-01T23:59:00", time.UTC)
	require.NoError(t, err)
	plain, err := Parse("2024-03-01", time.UTC)
	require.NoError(t, err)

	assert.Equal(t, morning, night)
	assert.Equal(t, morning, plain)
	assert.Equal(t, "2024-03-01", Key(morning))
	assert.Equal(t, 0, morning.Hour())
}

func TestParseUsesLocationForZonedInput(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*60*60)

	d, err := Parse("2024-03-01T21:30:00Z", almaty)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", Key(d))

	d, err = Parse("2024-03-01T21:30:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", Key(d))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("", time.UTC)
	assert.ErrorIs(t, err, ErrMissing)

	_, err = Parse("03/01/2024", time.UTC)
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("2024-03-01", "2024-03-05T10:00:00", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Len())

	days := r.Days()
	require.Len(t, days, 5)
	assert.Equal(t, "2024-03-01", Key(days[0]))
	assert.Equal(t, "2024-03-05", Key(days[4]))

	_, err = ParseRange("", "2024-03-05", time.UTC)
	assert.ErrorIs(t, err, ErrMissing)

	_, err = ParseRange("2024-03-05", "2024-03-01", time.UTC)
	assert.ErrorIs(t, err, ErrInverted)
}

func TestRangeAcrossMonthBoundary(t *testing.T) {
	r, err := ParseRange("2024-02-27", "2024-03-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Len())
	assert.True(t, r.Contains(mustParse(t, "2024-02-29")))
	assert.False(t, r.Contains(mustParse(t, "2024-03-03")))
}

func TestLenCoversCenturies(t *testing.T) {
	r, err := ParseRange("0001-01-01", "9999-12-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3652059, r.Len())

	r, err = ParseRange("1900-01-01", "2299-12-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 146097, r.Len())
}

func TestNewRangeNormalizesEnds(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC on 2024-03-01 is already 2024-03-02 in Kolkata.
	r, err := NewRange(time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), time.Date(2024, 3, 3, 1, 0, 0, 0, time.UTC), kolkata)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", Key(r.Start))
	assert.Equal(t, 2, r.Len())

	_, err = NewRange(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.ErrorIs(t, err, ErrInverted)
}

func TestFilterByWeekdays(t *testing.T) {
	// 2024-03-04 is a Monday.
	r, err := ParseRange("2024-03-04", "2024-03-10", time.UTC)
	require.NoError(t, err)

	days := r.Filter(Weekdays([]string{"Monday", "wed", "Friday", "bogus"}))
	require.Len(t, days, 3)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, time.Wednesday, days[1].Weekday())
	assert.Equal(t, time.Friday, days[2].Weekday())

	assert.Len(t, r.Filter(nil), 7)
}

func TestLastN(t *testing.T) {
	r := LastN(mustParse(t, "2024-03-07"), 7)
	assert.Equal(t, "2024-03-01", Key(r.Start))
	assert.Equal(t, 7, r.Len())
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := Parse(s, time.UTC)
	require.NoError(t, err)
	return d
}
