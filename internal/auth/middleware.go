package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	localClaims = "claims"
	localToken  = "token"
)

// JWTMiddleware validates bearer tokens and stores the claims, the student id
// and the raw token in locals.
func JWTMiddleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" && strings.EqualFold(c.Get("Upgrade"), "websocket") {
			// browsers cannot set headers on a websocket handshake
			token = c.Query("access_token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := svc.Verify(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrSessionExpired) {
				return fiber.NewError(fiber.StatusUnauthorized, err.Error())
			}
			return fiber.NewError(fiber.StatusServiceUnavailable, "session store unavailable")
		}

		c.Locals(localClaims, claims)
		c.Locals("student_id", claims.StudentID)
		c.Locals(localToken, token)
		return c.Next()
	}
}

// RequireStudent allows the owner of the :param student id, and advisors on
// read-only requests.
func RequireStudent(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "missing claims")
		}
		if claims.StudentID == c.Params(param) {
			return c.Next()
		}
		if claims.Role == RoleAdvisor && c.Method() == fiber.MethodGet {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "not allowed for this student")
	}
}

func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(localClaims).(*Claims)
	return claims
}

func TokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(localToken).(string)
	return token
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
