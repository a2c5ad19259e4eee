package handler

import (
	"net/http"
	"strconv"

	"shop/internal/domain/model"
	"shop/internal/middleware"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/audit-logs の参照API
type AdminAuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

// DI
func NewAdminAuditLogHandler(uc *usecase.AuditLogUsecase) *AdminAuditLogHandler {
	return &AdminAuditLogHandler{uc: uc}
}

func (h *AdminAuditLogHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/admin/audit-logs")
	g.Use(auth)
	g.Use(middleware.AdminRoleGuard())

	g.GET("", h.list)
}

func (h *AdminAuditLogHandler) list(c echo.Context) error {
	who, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	filter := repo.AuditLogFilter{Action: model.AuditAction(c.QueryParam("action"))}
	for name, dst := range map[string]*int64{
		"actor_user_id": &filter.ActorUserID,
		"resource_id":   &filter.ResourceID,
	} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		}
		*dst = id
	}

	out, err := h.uc.ListAuditLogs(c.Request().Context(), who, filter, pageQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
