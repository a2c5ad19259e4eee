package handler

import (
	"log/slog"
	"net/http"

	"shop/internal/domain/model"
	"shop/internal/middleware"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

var kindStatus = map[usecase.ErrorKind]int{
	usecase.KindValidation:   http.StatusBadRequest,
	usecase.KindNotFound:     http.StatusNotFound,
	usecase.KindUnauthorized: http.StatusUnauthorized,
	usecase.KindForbidden:    http.StatusForbidden,
	usecase.KindUpstream:     http.StatusBadGateway,
	usecase.KindPersistence:  http.StatusInternalServerError,
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	ctx := c.Request().Context()

	if ue, ok := usecase.AsError(err); ok {
		status, found := kindStatus[ue.Kind]
		if !found {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "request failed", "path", c.Path(), "kind", ue.Kind, "error", err)
		}
		return c.JSON(status, ErrorResponse{Error: ue.Message, Fields: ue.Fields})
	}

	//500
	slog.ErrorContext(ctx, "request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// AuthJWT の後でだけ呼ぶ
func getIdentity(c echo.Context) (model.Identity, bool) {
	return middleware.IdentityFrom(c)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}
