package location

import "backend-skillpath/internal/participation"

type Location struct {
	ID           string   `json:"location_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Lat          float64  `json:"latitude"`
	Lng          float64  `json:"longitude"`
	RadiusMeters *float64 `json:"radius_m,omitempty"`
}

// Geofence converts the row into the participation view used for confirmation.
func (l Location) Geofence() participation.Location {
	lat, lng := l.Lat, l.Lng
	return participation.Location{
		ID:           l.ID,
		Name:         l.Name,
		Lat:          &lat,
		Lng:          &lng,
		RadiusMeters: l.RadiusMeters,
	}
}
