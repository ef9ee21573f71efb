package timeslotdomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		id   int64
		want string
	}{
		{1, "t1"},
		{61, "tz"},
		{62, "t10"},
		{3844, "t100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShortID(tt.id))
		got, ok := ParseShortID(tt.want)
		assert.True(t, ok)
		assert.Equal(t, tt.id, got)
	}
	assert.Empty(t, ShortID(0))
}

func TestParseShortID_Invalid(t *testing.T) {
	for _, s := range []string{"", "t", "x12", "t-1", "1", "t0", "tzzzzzzzzzzzz"} {
		_, ok := ParseShortID(s)
		assert.False(t, ok, s)
	}
}

func TestAvailabilitySchedule(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	dates := AvailabilitySchedule(5, start, Throttle{Enabled: true, Users: 2, Step: day})
	assert.Equal(t, []time.Time{start, start, start.Add(day), start.Add(day), start.Add(2 * day)}, dates)

	flat := AvailabilitySchedule(3, start, Throttle{Enabled: false, Users: 2, Step: day})
	assert.Equal(t, []time.Time{start, start, start}, flat)

	assert.Empty(t, AvailabilitySchedule(0, start, Throttle{}))
}

func TestCanBookAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	assert.True(t, CanBookAt(&past, now, true))
	assert.True(t, CanBookAt(&now, now, true))
	assert.False(t, CanBookAt(&future, now, false))
	assert.False(t, CanBookAt(nil, now, true))
	assert.True(t, CanBookAt(nil, now, false))
}
