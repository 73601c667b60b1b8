package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(day, hour, min, sec int) time.Time {
	return time.Date(2026, time.March, day, hour, min, sec, 0, time.Local)
}

func TestSchedule_IsOpen(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"Opening Instant", at(10, 19, 0, 0), true},
		{"Before Midnight", at(10, 23, 59, 59), true},
		{"Midnight", at(11, 0, 0, 0), true},
		{"Last Second", at(11, 0, 59, 59), true},
		{"Closing Instant", at(11, 1, 0, 0), false},
		{"Just Before Opening", at(10, 18, 59, 59), false},
		{"Noon", at(10, 12, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Default.IsOpen(tt.now))
		})
	}
}

func TestSchedule_IsOpen_SameDayWindow(t *testing.T) {
	s := Schedule{OpenHour: 9, CloseHour: 17}

	assert.True(t, s.IsOpen(at(10, 9, 0, 0)))
	assert.True(t, s.IsOpen(at(10, 16, 59, 59)))
	assert.False(t, s.IsOpen(at(10, 17, 0, 0)))
	assert.False(t, s.IsOpen(at(10, 8, 59, 59)))
}

func TestSchedule_NextOpen(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"Morning", at(10, 10, 0, 0), at(10, 19, 0, 0)},
		{"Evening", at(10, 20, 0, 0), at(11, 19, 0, 0)},
		{"Just Before", at(10, 18, 59, 59), at(10, 19, 0, 0)},
		{"Opening Instant", at(10, 19, 0, 0), at(11, 19, 0, 0)},
		{"After Midnight", at(11, 0, 30, 0), at(11, 19, 0, 0)},
		{"Month Boundary", time.Date(2026, time.March, 31, 21, 0, 0, 0, time.Local), time.Date(2026, time.April, 1, 19, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default.NextOpen(tt.now)
			assert.True(t, got.Equal(tt.want), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestSchedule_NextOpen_ConsistentWithIsOpen(t *testing.T) {
	// While open, the next opening is always in the future and on a later wall-clock date
	// than the current window's opening.
	for h := 0; h < 24; h++ {
		now := at(10, h, 15, 0)
		next := Default.NextOpen(now)
		assert.True(t, next.After(now), "hour %d", h)
		assert.Equal(t, 19, next.Hour())
		assert.Less(t, next.Sub(now), 24*time.Hour, "hour %d", h)
		if Default.IsOpen(now) && h >= 19 {
			assert.Equal(t, 11, next.Day(), "hour %d", h)
		}
	}
}

func TestSchedule_NextOpen_KeepsLocation(t *testing.T) {
	zone := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2026, time.December, 31, 21, 15, 0, 0, zone)

	got := Default.NextOpen(now)
	assert.Equal(t, zone, got.Location())
	assert.True(t, got.Equal(time.Date(2027, time.January, 1, 19, 0, 0, 0, zone)), "got %s", got)

	morning := Schedule{OpenHour: 6, CloseHour: 9}
	got = morning.NextOpen(time.Date(2026, time.June, 1, 5, 30, 0, 0, zone))
	assert.True(t, got.Equal(time.Date(2026, time.June, 1, 6, 0, 0, 0, zone)), "got %s", got)
}

func TestSchedule_Until(t *testing.T) {
	assert.Equal(t, 9*time.Hour, Default.Until(at(10, 10, 0, 0)))
}

func TestSchedule_Validate(t *testing.T) {
	assert.NoError(t, Default.Validate())
	assert.Error(t, Schedule{OpenHour: 24, CloseHour: 1}.Validate())
	assert.Error(t, Schedule{OpenHour: 3, CloseHour: -1}.Validate())
	assert.Error(t, Schedule{OpenHour: 5, CloseHour: 5}.Validate())
}

func TestSchedule_String(t *testing.T) {
	assert.Equal(t, "19:00-01:00", Default.String())
}
