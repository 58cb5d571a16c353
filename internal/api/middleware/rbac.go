package middleware

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextKeyRole).(string)
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// UserLookup loads the stored user behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// CurrentRole replaces the role carried in the token with the stored one, so
// granting or removing admin takes effect before the token expires.
// It must run after Auth and before RBAC.
func CurrentRole(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return domain.ErrForbidden
			}
			user, err := users.GetByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrForbidden
			}
			if err != nil {
				return err
			}

			claims.Role = user.Role()
			claims.VIP = user.VIPStatus
			c.Set(ContextKeyClaims, claims)
			c.Set(ContextKeyRole, claims.Role)
			return next(c)
		}
	}
}

var _ UserLookup = (ports.UserService)(nil)
