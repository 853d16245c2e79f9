package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/api/handler"
	"github.com/commonweb/user-manager/internal/api/middleware"
	"github.com/commonweb/user-manager/internal/core/domain"
)

// RouterDeps carries the wired handlers the router mounts.
type RouterDeps struct {
	JWTSecret string
	Log       zerolog.Logger

	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Roles       *handler.RoleHandler
	Permissions *handler.PermissionHandler
	Health      *handler.HealthHandler
	Readiness   *handler.ReadinessHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Every entity route sits behind JWT auth plus a permission guard derived
// from the entity namespace and verb, so the wildcard admin permission
// implies access to everything.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("usermanager"))

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health", deps.Health.Liveness)
	e.GET("/health/ready", deps.Readiness.Readiness)

	e.POST("/auth/login", deps.Auth.Login)

	auth := middleware.Auth(deps.JWTSecret)

	users := e.Group("/users", auth)
	users.POST("", deps.Users.Create, guard(domain.UserNamespace, domain.VerbCreate))
	users.GET("", deps.Users.List, guard(domain.UserNamespace, domain.VerbRead))
	users.GET("/:username", deps.Users.Get, guard(domain.UserNamespace, domain.VerbRead))
	users.PUT("/:username", deps.Users.Update, guard(domain.UserNamespace, domain.VerbUpdate))
	users.DELETE("/:username", deps.Users.Delete, guard(domain.UserNamespace, domain.VerbDelete))

	roles := e.Group("/roles", auth)
	roles.POST("", deps.Roles.Create, guard(domain.RoleNamespace, domain.VerbCreate))
	roles.GET("", deps.Roles.List, guard(domain.RoleNamespace, domain.VerbRead))
	roles.GET("/:name", deps.Roles.Get, guard(domain.RoleNamespace, domain.VerbRead))
	roles.PUT("/:name", deps.Roles.Update, guard(domain.RoleNamespace, domain.VerbUpdate))
	roles.DELETE("/:name", deps.Roles.Delete, guard(domain.RoleNamespace, domain.VerbDelete))

	perms := e.Group("/permissions", auth)
	perms.POST("", deps.Permissions.Create, guard(domain.PermissionNamespace, domain.VerbCreate))
	perms.POST("/crud", deps.Permissions.CreateCRUDSet, guard(domain.PermissionNamespace, domain.VerbCreate))
	perms.GET("", deps.Permissions.List, guard(domain.PermissionNamespace, domain.VerbRead))
	perms.GET("/:name", deps.Permissions.Get, guard(domain.PermissionNamespace, domain.VerbRead))
	perms.PUT("/:name", deps.Permissions.Update, guard(domain.PermissionNamespace, domain.VerbUpdate))
	perms.DELETE("/:name", deps.Permissions.Delete, guard(domain.PermissionNamespace, domain.VerbDelete))

	return e
}

func guard(namespace, verb string) echo.MiddlewareFunc {
	return middleware.RequirePermission(domain.PermissionName(namespace, verb))
}
