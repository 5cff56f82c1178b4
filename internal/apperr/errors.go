// Package apperr holds the error taxonomy shared by the participation engine
// and its HTTP edge.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError means an activity lacks data required for an action,
// typically a geofence center.
type ConfigurationError struct {
	ActivityID string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("activity %s not configured: %s", e.ActivityID, e.Reason)
}

// OutOfRangeError is returned when the caller is outside the activity geofence.
type OutOfRangeError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out of range: %.0f m from activity (allowed %.0f m)", e.DistanceMeters, e.RadiusMeters)
}

// ConfirmationRejectedError carries a business-rule refusal from the system of
// record. Message is shown to the user verbatim.
type ConfirmationRejectedError struct {
	Message    string
	StatusCode int
}

func (e *ConfirmationRejectedError) Error() string {
	if e.Message == "" {
		return "confirmation rejected"
	}
	return e.Message
}

// TransientError wraps network or infrastructure failures the user may retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: temporarily unavailable: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// DataShapeError reports a payload that could not be decoded into the typed model.
type DataShapeError struct {
	Source string
	Err    error
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.Source, e.Err)
}

func (e *DataShapeError) Unwrap() error { return e.Err }

// UpstreamError is a client-side refusal (4xx) from the system of record
// outside of the confirmation flow.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// StatusError pins the response status and code chosen at the HTTP edge while
// keeping the cause reachable through errors.As.
type StatusError struct {
	Status int
	Code   string
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

// WithStatus wraps err with status and code. An empty code falls back to Code(err).
func WithStatus(err error, status int, code string) error {
	if code == "" {
		code = Code(err)
	}
	return &StatusError{Status: status, Code: code, Err: err}
}

func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

func DataShape(source string, err error) error {
	return &DataShapeError{Source: source, Err: err}
}

// HTTPStatus maps the taxonomy onto response codes.
func HTTPStatus(err error) int {
	var (
		cfgErr      *ConfigurationError
		rangeErr    *OutOfRangeError
		rejectedErr *ConfirmationRejectedError
		transient   *TransientError
		shapeErr    *DataShapeError
		upstream    *UpstreamError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rangeErr):
		return http.StatusForbidden
	case errors.As(err, &rejectedErr):
		return http.StatusConflict
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable
	case errors.As(err, &shapeErr):
		return http.StatusBadGateway
	case errors.As(err, &upstream):
		if upstream.StatusCode >= 400 && upstream.StatusCode < 500 {
			return upstream.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable name for err.
func Code(err error) string {
	var (
		cfgErr      *ConfigurationError
		rangeErr    *OutOfRangeError
		rejectedErr *ConfirmationRejectedError
		transient   *TransientError
		shapeErr    *DataShapeError
		upstream    *UpstreamError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "not_configured"
	case errors.As(err, &rangeErr):
		return "out_of_range"
	case errors.As(err, &rejectedErr):
		return "rejected"
	case errors.As(err, &transient):
		return "transient"
	case errors.As(err, &shapeErr):
		return "data_shape"
	case errors.As(err, &upstream):
		return "upstream"
	default:
		return "internal"
	}
}
