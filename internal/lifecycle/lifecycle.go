// Package lifecycle derives the temporal phase of an activity from its time window.
package lifecycle

import "time"

type Phase string

const (
	Upcoming   Phase = "UPCOMING"
	InProgress Phase = "IN_PROGRESS"
	Ended      Phase = "ENDED"
)

// Classify returns the phase of an activity at now. A nil start is never
// upcoming or in progress; a nil end leaves a started activity in progress.
func Classify(now time.Time, start, end *time.Time) Phase {
	if start == nil {
		return Ended
	}
	if now.Before(*start) {
		return Upcoming
	}
	if end == nil || !now.After(*end) {
		return InProgress
	}
	return Ended
}

func (p Phase) String() string { return string(p) }
