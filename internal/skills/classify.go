package skills

import "fmt"

type Bucket string

const (
	Passed     Bucket = "PASSED"
	QuizReady  Bucket = "QUIZ_READY"
	InProgress Bucket = "IN_PROGRESS"
	NotStarted Bucket = "NOT_STARTED"
)

type Progress struct {
	Skill         Definition `json:"skill"`
	Bucket        Bucket     `json:"bucket"`
	Completed     int        `json:"completed"`
	PendingSurvey int        `json:"pending_survey"`
	Required      int        `json:"required"`
	Message       string     `json:"message"`
}

// QuizAvailable reports whether the skill quiz may be taken (or retaken).
func (p Progress) QuizAvailable() bool {
	return p.Bucket == QuizReady || p.Bucket == Passed
}

// BucketFor decides a single skill's bucket. Membership in passed dominates
// every counter.
func BucketFor(d Definition, completed int, passed PassedSet) Bucket {
	switch {
	case passed.Has(d.ID):
		return Passed
	case completed >= d.Threshold():
		return QuizReady
	case completed > 0:
		return InProgress
	default:
		return NotStarted
	}
}

// Classify buckets every skill of catalog. For the optional catalog, skills
// that are neither passed nor have a qualifying activity are left out.
func Classify(catalog []Definition, counts Counts, passed PassedSet, optional bool) []Progress {
	out := make([]Progress, 0, len(catalog))
	for _, d := range catalog {
		if d.ID == "" {
			continue
		}
		completed := counts.Completed[d.ID]
		pending := counts.PendingSurvey[d.ID]
		bucket := BucketFor(d, completed, passed)
		if optional && bucket == NotStarted {
			continue
		}
		out = append(out, Progress{
			Skill:         d,
			Bucket:        bucket,
			Completed:     completed,
			PendingSurvey: pending,
			Required:      d.Threshold(),
			Message:       message(bucket, completed, pending, d.Threshold()),
		})
	}
	return out
}

func message(b Bucket, completed, pending, required int) string {
	switch b {
	case Passed:
		return "Test passed"
	case QuizReady:
		return "Quiz available"
	case InProgress:
		return fmt.Sprintf("In progress (%d/%d)", completed, required)
	}
	if pending > 0 {
		return fmt.Sprintf("%d activities awaiting survey", pending)
	}
	return "Not started"
}

// Group indexes progress entries by bucket, preserving order.
func Group(progress []Progress) map[Bucket][]Progress {
	out := map[Bucket][]Progress{}
	for _, p := range progress {
		out[p.Bucket] = append(out[p.Bucket], p)
	}
	return out
}
