package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ecofuel/fleet-auth/internal/api/handler"
	"github.com/ecofuel/fleet-auth/internal/api/middleware"
	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/token"
)

// RouterConfig carries the wired dependencies for NewRouter.
type RouterConfig struct {
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	Health      *handler.HealthHandler
	Readiness   *handler.ReadinessHandler
	Validator   *token.Validator
	Accounts    middleware.AccountChecker
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Every route is gated by the role policy; routes not listed there fall
// closed and require a recognized role.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("fleet_auth"))

	policy := NewRoutePolicy()
	e.Use(middleware.Auth(policy, cfg.Validator, cfg.Accounts, cfg.Log))

	// --- Auth routes ---
	e.POST("/auth/login", cfg.AuthHandler.Login)
	e.POST("/auth/register", cfg.AuthHandler.Register)

	// --- User administration ---
	e.GET("/users", cfg.UserHandler.List)
	e.GET("/users/roles/:id", cfg.UserHandler.ListByRole)
	e.PATCH("/users/:id/status", cfg.UserHandler.ChangeStatus)
	e.DELETE("/users/:id", cfg.UserHandler.Deactivate)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", cfg.Health.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", cfg.Readiness.Readiness)  // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

// NewRoutePolicy declares which roles may call each route. Unknown routes
// fall back to requiring any recognized role.
func NewRoutePolicy() *middleware.Policy {
	policy := middleware.NewPolicy(domain.AllRoleNames()...)

	policy.Public(middleware.RouteKey(http.MethodPost, "/auth/login"))
	policy.Public(middleware.RouteKey(http.MethodGet, "/health"))
	policy.Public(middleware.RouteKey(http.MethodGet, "/health/ready"))
	policy.Public(middleware.RouteKey(http.MethodGet, "/metrics"))

	policy.Set(middleware.RouteKey(http.MethodPost, "/auth/register"), domain.RoleAdministrador)
	policy.Set(middleware.RouteKey(http.MethodGet, "/users"), domain.RoleAdministrador)
	policy.Set(middleware.RouteKey(http.MethodGet, "/users/roles/:id"), domain.RoleAdministrador)
	policy.Set(middleware.RouteKey(http.MethodPatch, "/users/:id/status"), domain.RoleAdministrador)
	policy.Set(middleware.RouteKey(http.MethodDelete, "/users/:id"), domain.RoleAdministrador)

	return policy
}
