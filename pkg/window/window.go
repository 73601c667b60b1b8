// Package window computes the daily opening window of the plaza.
//
// Every function is pure: the caller passes the wall-clock time and the
// hour of day is read in that time's location.
package window

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// Schedule is a recurring daily window [OpenHour, CloseHour).
// When OpenHour > CloseHour the window wraps past midnight.
type Schedule struct {
	OpenHour  int `yaml:"open_hour"`
	CloseHour int `yaml:"close_hour"`
}

// Default opens at 19:00 and closes at 01:00.
var Default = Schedule{OpenHour: 19, CloseHour: 1}

// IsOpen reports whether now falls inside the window.
func (s Schedule) IsOpen(now time.Time) bool {
	hour := now.Hour()
	if s.OpenHour > s.CloseHour {
		return hour >= s.OpenHour || hour < s.CloseHour
	}
	return hour >= s.OpenHour && hour < s.CloseHour
}

// NextOpen returns today's opening if now is strictly before it,
// otherwise tomorrow's. While the window is open this is the next
// day's opening, never the current moment.
func (s Schedule) NextOpen(now time.Time) time.Time {
	next, err := gronx.NextTickAfter(s.Cron(), now, false)
	if err != nil {
		// Only reachable with an unvalidated schedule.
		return now.Add(24 * time.Hour)
	}
	return next.In(now.Location())
}

// Until returns how long until the next opening.
func (s Schedule) Until(now time.Time) time.Duration {
	return s.NextOpen(now).Sub(now)
}

// Cron renders the opening instant as a cron expression.
func (s Schedule) Cron() string {
	return fmt.Sprintf("0 %d * * *", s.OpenHour)
}

// Validate checks the hours.
func (s Schedule) Validate() error {
	if s.OpenHour < 0 || s.OpenHour > 23 {
		return fmt.Errorf("open hour out of range: %d", s.OpenHour)
	}
	if s.CloseHour < 0 || s.CloseHour > 23 {
		return fmt.Errorf("close hour out of range: %d", s.CloseHour)
	}
	if s.OpenHour == s.CloseHour {
		return fmt.Errorf("open and close hour are both %d", s.OpenHour)
	}
	return nil
}

func (s Schedule) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", s.OpenHour, s.CloseHour)
}
