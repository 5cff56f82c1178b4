// Package skills aggregates activity completions into per-skill progress and
// decides which skill quizzes are unlocked.
package skills

import "time"

const (
	DefaultRequiredActivities = 3
	DefaultPassingScore       = 70
)

// Defaults holds the per-skill settings used when the catalog leaves them out.
type Defaults struct {
	RequiredActivities int
	PassingScore       int
}

// StandardDefaults is what the portal assumes when nothing is configured.
var StandardDefaults = Defaults{RequiredActivities: DefaultRequiredActivities, PassingScore: DefaultPassingScore}

// OrStandard replaces unset fields with the standard values.
func (d Defaults) OrStandard() Defaults {
	if d.RequiredActivities <= 0 {
		d.RequiredActivities = DefaultRequiredActivities
	}
	if d.PassingScore <= 0 {
		d.PassingScore = DefaultPassingScore
	}
	return d
}

type Definition struct {
	ID                 string `json:"skill_id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	Category           string `json:"category,omitempty"`
	Subcategory        string `json:"subcategory,omitempty"`
	YearLevel          int    `json:"year_level,omitempty"`
	IsRequired         bool   `json:"is_required"`
	RequiredActivities int    `json:"required_activities"`
	PassingScore       int    `json:"passing_score"`
}

// Threshold is the number of qualifying activities that unlocks the quiz.
func (d Definition) Threshold() int {
	if d.RequiredActivities <= 0 {
		return DefaultRequiredActivities
	}
	return d.RequiredActivities
}

func (d Definition) PassMark() int {
	if d.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return d.PassingScore
}

// Completed is a skill awarded after a passed quiz. It is the only proof
// that a skill was obtained.
type Completed struct {
	StudentID     string     `json:"student_id"`
	SkillID       string     `json:"skill_id"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	FinalScore    int        `json:"final_score"`
}

type PassedSet map[string]struct{}

func NewPassedSet(completed []Completed) PassedSet {
	set := make(PassedSet, len(completed))
	for _, c := range completed {
		if c.SkillID == "" {
			continue
		}
		set[c.SkillID] = struct{}{}
	}
	return set
}

func (p PassedSet) Has(skillID string) bool {
	_, ok := p[skillID]
	return ok
}

// Split separates a catalog into required and optional skills, keeping order.
func Split(catalog []Definition) (required, optional []Definition) {
	for _, d := range catalog {
		if d.IsRequired {
			required = append(required, d)
		} else {
			optional = append(optional, d)
		}
	}
	return required, optional
}
