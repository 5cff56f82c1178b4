package skills

import "backend-skillpath/internal/participation"

type Report struct {
	Required  []Progress `json:"required"`
	Optional  []Progress `json:"optional"`
	Dashboard Dashboard  `json:"dashboard"`
}

// BuildReport evaluates the required and optional catalogs independently.
// It must only be called once the records, the full catalog and the completed
// skills have all been loaded.
func (a *Aggregator) BuildReport(records []participation.Record, catalog []Definition, completed []Completed) Report {
	required, optional := Split(catalog)
	passed := NewPassedSet(completed)

	reqCounts := a.Aggregate(records, required)
	optCounts := a.Aggregate(records, optional)

	return Report{
		Required:  Classify(required, reqCounts, passed, false),
		Optional:  Classify(optional, optCounts, passed, true),
		Dashboard: Summarize(required, optional, passed),
	}
}

func BuildReport(records []participation.Record, catalog []Definition, completed []Completed) Report {
	return quiet.BuildReport(records, catalog, completed)
}

// Find returns the progress entry for skillID from either catalog.
func (r Report) Find(skillID string) (Progress, bool) {
	for _, list := range [][]Progress{r.Required, r.Optional} {
		for _, p := range list {
			if p.Skill.ID == skillID {
				return p, true
			}
		}
	}
	return Progress{}, false
}
