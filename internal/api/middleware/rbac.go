package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commonweb/user-manager/internal/core/domain"
)

// RequirePermission guards a route behind a permission. The check uses
// permission implication, so a token holding "*" or "users:*" satisfies
// "users:read".
func RequirePermission(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			granted, _ := c.Get("permissions").([]string)
			for _, g := range granted {
				p := domain.Permission{Name: g}
				if p.Implies(name) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
	}
}
