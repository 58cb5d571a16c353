package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/autotradevip/atv-backend/internal/api/handler"
	"github.com/autotradevip/atv-backend/internal/api/middleware"
	"github.com/autotradevip/atv-backend/internal/core/domain"
	"github.com/autotradevip/atv-backend/internal/core/ports"
	infrahttp "github.com/autotradevip/atv-backend/internal/infrastructure/http"
	"github.com/autotradevip/atv-backend/internal/infrastructure/http/handlers"
)

// Deps groups everything the router needs to build its handlers.
type Deps struct {
	AuthService  ports.AuthService
	UserService  ports.UserService
	AuditService ports.AuditService
	JWTSecret    string
	Checks       map[string]handlers.Check
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("atv"))

	// --- Ops routes (no auth required) ---
	infrahttp.RegisterOps(e, d.Checks)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	userHandler := handler.NewUserHandler(d.UserService)
	adminHandler := handler.NewAdminHandler(d.UserService, d.AuditService)
	authMiddleware := middleware.Auth(d.JWTSecret, d.AuthService)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Self-service routes ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/me", userHandler.Me)
	v1.PUT("/me", userHandler.UpdateMe)
	v1.PUT("/me/password", userHandler.ChangePassword)
	v1.GET("/me/accounts", userHandler.Accounts)

	// --- Admin routes ---
	admin := v1.Group("/admin", middleware.CurrentRole(d.UserService), middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/exists", adminHandler.Exists)
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.PUT("/users/:id/vip", adminHandler.UpdateVIP)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/audit", adminHandler.Audit)

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
