package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aegis-response/aegis_console/internal/auth"
	"github.com/aegis-response/aegis_console/internal/config"
	"github.com/aegis-response/aegis_console/internal/staff"
)

// JWTAuth returns a middleware that validates access tokens and checks token version.
func JWTAuth(cfg config.Config, repo staff.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		sub, _ := claims["sub"].(string)
		verFloat, _ := claims["ver"].(float64)
		ver := int(verFloat)

		account, err := repo.FindByID(c.UserContext(), sub)
		if err != nil || account.TokenVersion != ver {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals("account_id", sub)
		c.Locals("account_role", account.Role)
		return c.Next()
	}
}
