package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextKeyClaims = "claims"
	ContextKeyRole   = "role"
	ContextKeyUserID = "user_id"
)

// RevocationChecker reports whether a token ID has been logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Auth validates the JWT, rejects revoked tokens and injects the claims into
// context. checker may be nil.
func Auth(jwtSecret string, checker RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			mc := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], mc, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims, ok := toTokenClaims(mc)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			if checker != nil && claims.TokenID != "" {
				revoked, err := checker.IsRevoked(c.Request().Context(), claims.TokenID)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "token validation unavailable")
				}
				if revoked {
					return domain.ErrTokenRevoked
				}
			}

			c.Set(ContextKeyClaims, claims)
			c.Set(ContextKeyUserID, claims.UserID)
			c.Set(ContextKeyRole, claims.Role)

			return next(c)
		}
	}
}

// ClaimsFrom returns the claims injected by Auth.
func ClaimsFrom(c echo.Context) (ports.TokenClaims, bool) {
	claims, ok := c.Get(ContextKeyClaims).(ports.TokenClaims)
	return claims, ok
}

func toTokenClaims(mc jwt.MapClaims) (ports.TokenClaims, bool) {
	sub, _ := mc["sub"].(string)
	role, _ := mc["role"].(string)
	if sub == "" || role == "" {
		return ports.TokenClaims{}, false
	}

	email, _ := mc["email"].(string)
	vip, _ := mc["vip"].(bool)
	jti, _ := mc["jti"].(string)

	var exp time.Time
	if e, err := mc.GetExpirationTime(); err == nil && e != nil {
		exp = e.Time
	}

	return ports.TokenClaims{
		UserID:    sub,
		Email:     email,
		Role:      role,
		VIP:       vip,
		TokenID:   jti,
		ExpiresAt: exp,
	}, true
}
