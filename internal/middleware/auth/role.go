package auth

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/smartcart/internal/logging"
	"github.com/Skotchmaster/smartcart/internal/models"
	"github.com/Skotchmaster/smartcart/internal/shared"
)

// RequireRole must run after Guard.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromEcho(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(shared.ErrUnauthenticated)
			}
			if !slices.Contains(roles, claims.Role) {
				logging.FromContext(c.Request().Context()).Warn("forbidden",
					"mw", "require_role", "status", http.StatusForbidden, "role", claims.Role, "required", roles)
				return echo.NewHTTPError(http.StatusForbidden, "forbidden").SetInternal(shared.ErrForbidden)
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(models.RoleAdmin)
}
