package participation

import (
	"time"

	"backend-skillpath/internal/lifecycle"
)

type Tab string

const (
	TabUpcoming   Tab = "upcoming"
	TabInProgress Tab = "inprogress"
	TabDone       Tab = "done"
	TabAll        Tab = "all"
)

func ParseTab(s string) (Tab, bool) {
	switch Tab(s) {
	case TabUpcoming, TabInProgress, TabDone, TabAll:
		return Tab(s), true
	case "":
		return TabAll, true
	}
	return "", false
}

// Matches reports whether r belongs on tab at now. The done tab lists ended
// activities whose survey is in, i.e. those offering a certificate.
func (t Tab) Matches(now time.Time, r Record) bool {
	r = r.Sanitized()
	phase := lifecycle.Classify(now, r.Start, r.End)
	switch t {
	case TabUpcoming:
		return phase == lifecycle.Upcoming
	case TabInProgress:
		return phase == lifecycle.InProgress
	case TabDone:
		return phase == lifecycle.Ended && r.IsConfirmed && r.SurveyCompleted
	case TabAll:
		return true
	}
	return false
}

func Filter(now time.Time, records []Record, tab Tab) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if tab.Matches(now, r) {
			out = append(out, r)
		}
	}
	return out
}
