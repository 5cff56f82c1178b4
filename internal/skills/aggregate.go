package skills

import (
	"io"
	"log"

	"backend-skillpath/internal/participation"
)

// Skip reasons reported to the skip hook.
const (
	SkipMissingActivity = "missing_activity_id"
	SkipUnconfirmedFlag = "flag_without_confirmation"
	SkipMissingSkillID  = "catalog_missing_skill_id"
)

// Counts holds per-skill counters. Both maps have an entry for every skill of
// the catalog they were built from.
type Counts struct {
	Completed     map[string]int `json:"completed"`
	PendingSurvey map[string]int `json:"pending_survey"`
}

type Aggregator struct {
	logger *log.Logger
	onSkip func(reason string)
}

type Option func(*Aggregator)

func WithLogger(logger *log.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithSkipHook registers a callback invoked for every skipped input.
func WithSkipHook(fn func(reason string)) Option {
	return func(a *Aggregator) {
		a.onSkip = fn
	}
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		logger: log.New(log.Writer(), "[skills] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var quiet = NewAggregator(WithLogger(log.New(io.Discard, "", 0)))

// Aggregate counts with a non-logging aggregator.
func Aggregate(records []participation.Record, catalog []Definition) Counts {
	return quiet.Aggregate(records, catalog)
}

// Aggregate counts, per catalog skill, the confirmed activities whose survey
// is done and those still waiting for a survey. Malformed records are skipped.
func (a *Aggregator) Aggregate(records []participation.Record, catalog []Definition) Counts {
	counts := Counts{
		Completed:     make(map[string]int, len(catalog)),
		PendingSurvey: make(map[string]int, len(catalog)),
	}
	for _, d := range catalog {
		if d.ID == "" {
			a.skip(SkipMissingSkillID, "catalog entry %q has no skill id", d.Name)
			continue
		}
		counts.Completed[d.ID] = 0
		counts.PendingSurvey[d.ID] = 0
	}

	for _, r := range records {
		if r.ActivityID == "" {
			a.skip(SkipMissingActivity, "participation for student %s has no activity id", r.StudentID)
			continue
		}
		if r.Violation() {
			a.skip(SkipUnconfirmedFlag, "activity %s has survey/quiz flags without confirmation", r.ActivityID)
			continue
		}
		if !r.IsConfirmed || r.SkillID == "" {
			continue
		}
		if _, tracked := counts.Completed[r.SkillID]; !tracked {
			continue
		}
		if r.SurveyCompleted {
			counts.Completed[r.SkillID]++
		} else {
			counts.PendingSurvey[r.SkillID]++
		}
	}
	return counts
}

func (a *Aggregator) skip(reason, format string, args ...any) {
	a.logger.Printf("skip %s: "+format, append([]any{reason}, args...)...)
	if a.onSkip != nil {
		a.onSkip(reason)
	}
}
