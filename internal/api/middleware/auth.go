package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ecofuel/fleet-auth/internal/api/metrics"
	"github.com/ecofuel/fleet-auth/internal/core/domain"
	"github.com/ecofuel/fleet-auth/internal/token"
)

// Context keys set by the gate for downstream handlers.
const (
	ContextEmail = "auth_email"
	ContextRoles = "auth_roles"
)

// AccountChecker re-reads the live account state for every protected call.
// The token's snapshot of the account is never trusted on its own.
type AccountChecker interface {
	ByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Auth is the per-call gate in front of every route. For routes the policy
// marks public it is a pass-through; for everything else it extracts the
// bearer credential, validates it, re-checks the account, and enforces the
// route's required role set. Rejections surface as HTTP statuses (401/403),
// unexpected failures as a generic 500. Raw errors never reach the wire.
func Auth(policy *Policy, validator *token.Validator, accounts AccountChecker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := RouteKey(c.Request().Method, c.Path())
			required, known := policy.RequiredRoles(route)
			if !known {
				log.Warn().Str("route", route).Msg("route missing from policy, requiring authentication by default")
			}
			if len(required) == 0 {
				return next(c)
			}

			bearer, err := extractBearer(c)
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("missing").Inc()
				return err
			}

			id, err := validator.Validate(bearer)
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
				log.Warn().Str("route", route).Msg("token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			metrics.TokenValidationsTotal.WithLabelValues("ok").Inc()

			// Live account recheck: a deactivated or deleted account loses
			// access immediately, even with an unexpired token.
			user, err := accounts.ByEmail(c.Request().Context(), id.Email)
			switch {
			case errors.Is(err, domain.ErrUserNotFound):
				metrics.AccessDeniedTotal.WithLabelValues("account_missing").Inc()
				log.Warn().Str("email", id.Email).Msg("token for unknown account")
				return echo.NewHTTPError(http.StatusForbidden, "user account not found")
			case err != nil:
				log.Error().Err(err).Str("email", id.Email).Msg("account status check failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			case !user.Active:
				metrics.AccessDeniedTotal.WithLabelValues("account_inactive").Inc()
				log.Warn().Str("email", id.Email).Msg("deactivated account attempted access")
				return echo.NewHTTPError(http.StatusForbidden, "user account is deactivated")
			}

			if !id.HasAnyRole(required) {
				metrics.AccessDeniedTotal.WithLabelValues("insufficient_role").Inc()
				log.Warn().
					Str("email", id.Email).
					Strs("roles", id.Roles).
					Strs("required", required).
					Str("route", route).
					Msg("insufficient permissions")
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("insufficient permissions, acceptable roles: %s", strings.Join(required, ", ")))
			}

			c.Set(ContextEmail, id.Email)
			c.Set(ContextRoles, id.Roles)
			return next(c)
		}
	}
}

func extractBearer(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.TrimSpace(header) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authorization header is required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}
