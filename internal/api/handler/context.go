package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/autotradevip/atv-backend/internal/api/middleware"
	"github.com/autotradevip/atv-backend/internal/core/ports"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// fails fast when they are missing, which means the route was registered
// without the middleware.
func ctxClaims(c echo.Context) (ports.TokenClaims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok || claims.UserID == "" {
		return ports.TokenClaims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// requestMeta describes the caller for the audit trail.
func requestMeta(c echo.Context) ports.RequestMeta {
	return ports.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
