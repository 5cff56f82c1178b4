package attendance

import (
	"context"
	"errors"

	"backend-skillpath/internal/shared/geo"
)

var ErrLocationUnavailable = errors.New("location unavailable")

// Locator produces the caller's current position exactly once per attempt.
type Locator interface {
	Locate(ctx context.Context) (geo.Point, error)
}

type LocatorFunc func(ctx context.Context) (geo.Point, error)

func (f LocatorFunc) Locate(ctx context.Context) (geo.Point, error) {
	return f(ctx)
}

// StaticLocator reports coordinates the client already measured.
type StaticLocator geo.Point

func (s StaticLocator) Locate(ctx context.Context) (geo.Point, error) {
	if err := ctx.Err(); err != nil {
		return geo.Point{}, err
	}
	p := geo.Point(s)
	if !p.Valid() {
		return geo.Point{}, ErrLocationUnavailable
	}
	return p, nil
}
