// Package clock provides the time source and calendar-day helpers used
// by the engine, gamification rules, and notification scheduler.
package clock

import (
	"sync"
	"time"
)

// DayFormat is the calendar-day string format stored in
// GamificationState.LastCompletedDate.
const DayFormat = "2006-01-02"

// Clock abstracts "now" so day-sensitive logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// DayString formats t as a calendar-day key in t's location.
func DayString(t time.Time) string {
	return t.Format(DayFormat)
}

// SameDay reports whether a and b fall on the same calendar day,
// compared in a's location.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.In(a.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsYesterday reports whether the day key prev ("2006-01-02") is exactly
// the calendar day before t.
func IsYesterday(prev string, t time.Time) bool {
	return prev == DayString(t.AddDate(0, 0, -1))
}
