// Package attendance confirms that a student is physically at an activity.
package attendance

import (
	"time"

	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/shared/geo"
)

type Request struct {
	StudentID string
	Activity  participation.Activity
	// QRCode is an optional check-in code shown at the venue.
	QRCode string
}

// GeofenceCheck describes one distance test. It is returned for display and
// never stored.
type GeofenceCheck struct {
	Caller         geo.Point `json:"caller"`
	Center         geo.Point `json:"center"`
	RadiusMeters   float64   `json:"radius_m"`
	DistanceMeters float64   `json:"distance_m"`
	Inside         bool      `json:"inside"`
}

type Result struct {
	Check       GeofenceCheck `json:"check"`
	Message     string        `json:"message"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
}

// Outcome labels reported to the observer.
const (
	OutcomeConfirmed     = "confirmed"
	OutcomeNotConfigured = "not_configured"
	OutcomeInFlight      = "in_flight"
	OutcomeNoLocation    = "no_location"
	OutcomeOutOfRange    = "out_of_range"
	OutcomeBadCode       = "bad_code"
	OutcomeRejected      = "rejected"
	OutcomeTransient     = "transient"
)
