package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/autotradevip/atv-backend/internal/core/ports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminHandler exposes user management to administrators.
type AdminHandler struct {
	users ports.UserService
	audit ports.AuditService
}

func NewAdminHandler(users ports.UserService, audit ports.AuditService) *AdminHandler {
	return &AdminHandler{users: users, audit: audit}
}

// ListUsers handles GET /v1/admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (max 200)"
// @Param        offset  query     int  false  "Rows to skip"
// @Success      200     {object}  userListResponse
// @Failure      403     {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}

	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	users, err := h.users.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userListResponse{
		Users:  toUserResponses(users),
		Limit:  limit,
		Offset: offset,
	})
}

// Exists handles GET /v1/admin/users/exists?email=.
//
// @Summary      Check whether an email is registered
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        email  query     string  true  "Email address"
// @Success      200    {object}  existsResponse
// @Failure      422    {object}  errorResponse
// @Router       /v1/admin/users/exists [get]
func (h *AdminHandler) Exists(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "email is required")
	}

	exists, err := h.users.Exists(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existsResponse{Email: email, Exists: exists})
}

// GetUser handles GET /v1/admin/users/:id.
//
// @Summary      Get a user by ID
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id} [get]
func (h *AdminHandler) GetUser(c echo.Context) error {
	user, err := h.users.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateVIP handles PUT /v1/admin/users/:id/vip.
//
// @Summary      Set VIP status
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string            true  "User ID"
// @Param        body  body  updateVIPRequest  true  "New VIP status"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/users/{id}/vip [put]
func (h *AdminHandler) UpdateVIP(c echo.Context) error {
	var req updateVIPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.users.UpdateVIPStatus(c.Request().Context(), c.Param("id"), *req.VIPStatus, requestMeta(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/admin/stats.
//
// @Summary      User base statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsResponse
// @Router       /v1/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.users.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(stats))
}

// Audit handles GET /v1/admin/audit.
//
// @Summary      Recent audit events
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Number of events (max 200)"
// @Success      200    {object}  auditListResponse
// @Router       /v1/admin/audit [get]
func (h *AdminHandler) Audit(c echo.Context) error {
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		return err
	}

	events, err := h.audit.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, auditListResponse{Events: toAuditResponses(events)})
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, name+" must be a non-negative integer")
	}
	return n, nil
}
