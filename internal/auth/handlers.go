package auth

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service) {
	authMiddleware := JWTMiddleware(svc)

	r.Get("/jwt/verify", authMiddleware, func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		return c.JSON(fiber.Map{
			"student_id": claims.StudentID,
			"role":       claims.Role,
			"name":       claims.Name,
			"year_level": claims.YearLevel,
		})
	})

	r.Post("/logout", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), ClaimsFrom(c)); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
