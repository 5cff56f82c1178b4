// Package location reads activity venues and their geofences from the portal
// database.
package location

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"backend-skillpath/internal/db"
)

var ErrNotFound = errors.New("location not found")

type Service struct {
	db            db.Querier
	defaultRadius float64
}

func NewService(db db.Querier, defaultRadius float64) *Service {
	return &Service{db: db, defaultRadius: defaultRadius}
}

func (s *Service) GetLocation(ctx context.Context, id string) (Location, error) {
	row := s.db.QueryRow(ctx, `
		SELECT location_id, name, COALESCE(description, ''), ST_Y(location::geometry), ST_X(location::geometry), radius_m
		FROM locations WHERE location_id=$1
	`, id)
	var l Location
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.Lat, &l.Lng, &l.RadiusMeters); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, ErrNotFound
		}
		return Location{}, err
	}
	return l, nil
}

// Containing lists the venues whose geofence covers the point. Venues without
// a radius use the service default.
func (s *Service) Containing(ctx context.Context, lat, lng float64) ([]Location, error) {
	rows, err := s.db.Query(ctx, `
		SELECT location_id, name, COALESCE(description, ''), ST_Y(location::geometry), ST_X(location::geometry), radius_m
		FROM locations
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, COALESCE(radius_m, $3))
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography)
	`, lng, lat, s.defaultRadius)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Lat, &l.Lng, &l.RadiusMeters); err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}
