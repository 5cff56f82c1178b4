// Package participation models activities and a student's participation in them.
// Records are read-only snapshots of the system of record.
package participation

import (
	"time"

	"backend-skillpath/internal/shared/geo"
)

type Location struct {
	ID           string   `json:"location_id,omitempty"`
	Name         string   `json:"location_name,omitempty"`
	Lat          *float64 `json:"latitude,omitempty"`
	Lng          *float64 `json:"longitude,omitempty"`
	RadiusMeters *float64 `json:"radius_m,omitempty"`
}

// Center returns the geofence center when both coordinates are known.
func (l Location) Center() (geo.Point, bool) {
	if l.Lat == nil || l.Lng == nil {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: *l.Lat, Lng: *l.Lng}
	if !p.Valid() {
		return geo.Point{}, false
	}
	return p, true
}

// Radius returns the configured radius, or fallback when unset or non-positive.
func (l Location) Radius(fallback float64) float64 {
	if l.RadiusMeters == nil || *l.RadiusMeters <= 0 {
		return fallback
	}
	return *l.RadiusMeters
}

type Activity struct {
	ID            string     `json:"activity_id"`
	Name          string     `json:"name"`
	Start         *time.Time `json:"start_date_time,omitempty"`
	End           *time.Time `json:"end_date_time,omitempty"`
	Location      Location   `json:"location"`
	PLOs          []string   `json:"plo,omitempty"`
	SkillID       string     `json:"skill_id,omitempty"`
	SkillCategory string     `json:"skill_category,omitempty"`
	SkillLevel    string     `json:"skill_level,omitempty"`
	QRCode        string     `json:"-"`
}

// Record is a (student, activity) participation with the activity window
// denormalized onto it.
type Record struct {
	StudentID          string     `json:"student_id"`
	ActivityID         string     `json:"activity_id"`
	Name               string     `json:"name"`
	Start              *time.Time `json:"start_date_time,omitempty"`
	End                *time.Time `json:"end_date_time,omitempty"`
	Location           Location   `json:"location"`
	SkillID            string     `json:"skill_id,omitempty"`
	SkillCategory      string     `json:"skill_category,omitempty"`
	PLOs               []string   `json:"plo,omitempty"`
	IsConfirmed        bool       `json:"is_confirmed"`
	SurveyCompleted    bool       `json:"survey_completed"`
	QuizCompleted      bool       `json:"quiz_completed"`
	CertificateClaimed bool       `json:"certificate_claimed"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	QRCode             string     `json:"-"`
}

// Activity projects the activity part of the record.
func (r Record) Activity() Activity {
	return Activity{
		ID:            r.ActivityID,
		Name:          r.Name,
		Start:         r.Start,
		End:           r.End,
		Location:      r.Location,
		PLOs:          r.PLOs,
		SkillID:       r.SkillID,
		SkillCategory: r.SkillCategory,
		QRCode:        r.QRCode,
	}
}

// Violation reports whether downstream flags are set without confirmation.
func (r Record) Violation() bool {
	return !r.IsConfirmed && (r.SurveyCompleted || r.QuizCompleted || r.CertificateClaimed)
}

// Sanitized returns r with every flag that depends on confirmation cleared
// when the record is not confirmed.
func (r Record) Sanitized() Record {
	if r.IsConfirmed {
		return r
	}
	r.SurveyCompleted = false
	r.QuizCompleted = false
	r.CertificateClaimed = false
	return r
}

// Find returns the record for activityID.
func Find(records []Record, activityID string) (Record, bool) {
	for _, r := range records {
		if r.ActivityID == activityID {
			return r, true
		}
	}
	return Record{}, false
}
