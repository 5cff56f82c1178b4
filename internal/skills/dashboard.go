package skills

type Dashboard struct {
	TotalRequired     int     `json:"total_required"`
	CompletedRequired int     `json:"completed_required"`
	PendingRequired   int     `json:"pending_required"`
	CompletedOptional int     `json:"completed_optional"`
	FilledFraction    float64 `json:"filled_fraction"`
}

func Summarize(required, optional []Definition, passed PassedSet) Dashboard {
	d := Dashboard{TotalRequired: len(required)}
	for _, s := range required {
		if passed.Has(s.ID) {
			d.CompletedRequired++
		}
	}
	for _, s := range optional {
		if passed.Has(s.ID) {
			d.CompletedOptional++
		}
	}
	d.PendingRequired = d.TotalRequired - d.CompletedRequired
	if d.TotalRequired > 0 {
		d.FilledFraction = float64(d.CompletedRequired) / float64(d.TotalRequired)
	}
	return d
}
