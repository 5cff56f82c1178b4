package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"backend-skillpath/internal/apperr"
	"backend-skillpath/internal/events"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/shared/geo"
)

const (
	DefaultRadiusMeters  = 200.0
	DefaultLocateTimeout = 15 * time.Second
)

// Recorder is the part of the system of record that accepts confirmations.
type Recorder interface {
	ConfirmAttendance(ctx context.Context, req records.ConfirmRequest) (records.ConfirmResponse, error)
}

type Confirmer struct {
	recorder      Recorder
	guard         Guard
	publisher     events.Publisher
	radius        float64
	locateTimeout time.Duration
	now           func() time.Time
	logger        *log.Logger
	observe       func(outcome string, distance float64)
}

type Option func(*Confirmer)

func WithGuard(g Guard) Option {
	return func(c *Confirmer) {
		c.guard = g
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(c *Confirmer) {
		c.publisher = p
	}
}

// WithDefaultRadius sets the radius used for activities without their own.
func WithDefaultRadius(meters float64) Option {
	return func(c *Confirmer) {
		if meters > 0 {
			c.radius = meters
		}
	}
}

func WithLocateTimeout(d time.Duration) Option {
	return func(c *Confirmer) {
		if d > 0 {
			c.locateTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Confirmer) {
		c.now = now
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Confirmer) {
		c.logger = logger
	}
}

// WithObserver receives every attempt's outcome and, when measured, the
// caller's distance from the center (negative otherwise).
func WithObserver(fn func(outcome string, distance float64)) Option {
	return func(c *Confirmer) {
		c.observe = fn
	}
}

func NewConfirmer(recorder Recorder, opts ...Option) *Confirmer {
	c := &Confirmer{
		recorder:      recorder,
		guard:         NewMemoryGuard(),
		publisher:     events.Discard,
		radius:        DefaultRadiusMeters,
		locateTimeout: DefaultLocateTimeout,
		now:           time.Now,
		logger:        log.New(log.Writer(), "[attendance] ", log.LstdFlags),
		observe:       func(string, float64) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Confirm runs one confirmation attempt: geofence lookup, a single location
// fix, the distance test and, only when inside, one request to the system of
// record. Nothing is retried and no local state changes.
func (c *Confirmer) Confirm(ctx context.Context, req Request, locator Locator) (Result, error) {
	activity := req.Activity
	center, ok := activity.Location.Center()
	if !ok {
		c.observe(OutcomeNotConfigured, -1)
		return Result{}, &apperr.ConfigurationError{ActivityID: activity.ID, Reason: "activity has no geofence center"}
	}
	radius := activity.Location.Radius(c.radius)

	code := NormalizeQRCode(req.QRCode)
	if code != "" {
		if !ValidQRCode(code) {
			c.observe(OutcomeBadCode, -1)
			return Result{}, ErrInvalidQRCode
		}
		if activity.QRCode != "" && activity.QRCode != code {
			c.observe(OutcomeBadCode, -1)
			return Result{}, &apperr.ConfirmationRejectedError{Message: "check-in code does not match this activity"}
		}
	}

	release, err := c.guard.Acquire(ctx, guardKey(req.StudentID, activity.ID))
	if err != nil {
		if errors.Is(err, ErrConfirmationInFlight) {
			c.observe(OutcomeInFlight, -1)
			return Result{}, err
		}
		c.observe(OutcomeTransient, -1)
		return Result{}, apperr.Transient("confirm guard", err)
	}
	defer release()

	caller, err := c.locate(ctx, locator)
	if err != nil {
		c.observe(OutcomeNoLocation, -1)
		return Result{}, err
	}

	distance := geo.DistanceMeters(caller, center)
	check := GeofenceCheck{
		Caller:         caller,
		Center:         center,
		RadiusMeters:   radius,
		DistanceMeters: distance,
		Inside:         distance <= radius,
	}
	if !check.Inside {
		c.observe(OutcomeOutOfRange, distance)
		return Result{Check: check}, &apperr.OutOfRangeError{DistanceMeters: distance, RadiusMeters: radius}
	}

	resp, err := c.recorder.ConfirmAttendance(ctx, records.ConfirmRequest{
		StudentID:  req.StudentID,
		ActivityID: activity.ID,
		Latitude:   caller.Lat,
		Longitude:  caller.Lng,
		QRCode:     code,
		ClientTime: c.now().UTC(),
	})
	if err != nil {
		return Result{Check: check}, c.classify(err, distance)
	}
	if !resp.Success {
		c.observe(OutcomeRejected, distance)
		return Result{Check: check}, &apperr.ConfirmationRejectedError{Message: resp.Message}
	}

	c.observe(OutcomeConfirmed, distance)
	ev := events.ParticipationUpdated(req.StudentID, activity.ID, OutcomeConfirmed)
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.logger.Printf("publish %s for %s/%s: %v", ev.Type, req.StudentID, activity.ID, err)
	}
	return Result{Check: check, Message: resp.Message, ConfirmedAt: resp.ConfirmedAt}, nil
}

func (c *Confirmer) locate(ctx context.Context, locator Locator) (geo.Point, error) {
	if locator == nil {
		return geo.Point{}, ErrLocationUnavailable
	}
	lctx, cancel := context.WithTimeout(ctx, c.locateTimeout)
	defer cancel()

	p, err := locator.Locate(lctx)
	switch {
	case ctx.Err() != nil:
		return geo.Point{}, ctx.Err()
	case err != nil:
		return geo.Point{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	case !p.Valid():
		return geo.Point{}, ErrLocationUnavailable
	}
	return p, nil
}

func (c *Confirmer) classify(err error, distance float64) error {
	var (
		rejected  *apperr.ConfirmationRejectedError
		transient *apperr.TransientError
	)
	switch {
	case errors.As(err, &rejected):
		c.observe(OutcomeRejected, distance)
		return err
	case errors.As(err, &transient):
		c.observe(OutcomeTransient, distance)
		return err
	default:
		c.observe(OutcomeTransient, distance)
		return apperr.Transient("confirm attendance", err)
	}
}
