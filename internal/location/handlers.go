package location

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"backend-skillpath/internal/shared/geo"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil || !(geo.Point{Lat: lat, Lng: lng}).Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "valid lat and lng required")
		}
		locations, err := svc.Containing(c.Context(), lat, lng)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if locations == nil {
			locations = []Location{}
		}
		return c.JSON(locations)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		l, err := svc.GetLocation(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "location not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(l)
	})
}
