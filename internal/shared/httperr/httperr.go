// Package httperr renders handler errors as JSON bodies carrying a stable code.
package httperr

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"backend-skillpath/internal/apperr"
)

// Handler is the fiber ErrorHandler for the API. Geofence refusals also carry
// the measured distance and the allowed radius.
func Handler(c *fiber.Ctx, err error) error {
	status, code := Classify(err)
	body := fiber.Map{"error": err.Error(), "code": code}

	var rangeErr *apperr.OutOfRangeError
	if errors.As(err, &rangeErr) {
		body["distance_m"] = rangeErr.DistanceMeters
		body["radius_m"] = rangeErr.RadiusMeters
	}
	return c.Status(status).JSON(body)
}

// Classify resolves the response status and code for err.
func Classify(err error) (int, string) {
	var se *apperr.StatusError
	if errors.As(err, &se) {
		return se.Status, se.Code
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, statusCode(fe.Code)
	}
	return apperr.HTTPStatus(err), apperr.Code(err)
}

// statusCode names a bare status, "Not Found" becoming not_found.
func statusCode(status int) string {
	msg := utils.StatusMessage(status)
	if msg == "" {
		return "internal"
	}
	return strings.ReplaceAll(strings.ToLower(msg), " ", "_")
}
