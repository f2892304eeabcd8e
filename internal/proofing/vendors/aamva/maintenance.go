package aamva

import (
	"strings"
	"time"
)

// Window is a recurring outage of one jurisdiction's DMV system, expressed in
// minutes after midnight in the schedule's location. Weekday -1 means daily.
type Window struct {
	Weekday     int
	StartMinute int
	EndMinute   int
}

// Schedule answers whether a jurisdiction is inside a planned outage.
type Schedule struct {
	loc     *time.Location
	windows map[string][]Window
}

// NewSchedule builds a schedule. A nil location means UTC.
func NewSchedule(loc *time.Location, windows map[string][]Window) *Schedule {
	if loc == nil {
		loc = time.UTC
	}
	normalized := make(map[string][]Window, len(windows))
	for j, w := range windows {
		normalized[strings.ToUpper(j)] = w
	}
	return &Schedule{loc: loc, windows: normalized}
}

// InMaintenanceWindow reports whether jurisdiction is in a window at t.
func (s *Schedule) InMaintenanceWindow(jurisdiction string, t time.Time) bool {
	if s == nil {
		return false
	}
	local := t.In(s.loc)
	minute := local.Hour()*60 + local.Minute()
	for _, w := range s.windows[strings.ToUpper(jurisdiction)] {
		if w.Weekday >= 0 && time.Weekday(w.Weekday) != local.Weekday() {
			continue
		}
		if minute >= w.StartMinute && minute < w.EndMinute {
			return true
		}
	}
	return false
}
