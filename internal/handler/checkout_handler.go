package handler

import (
	"io"
	"net/http"

	"shop/internal/domain/model"
	"shop/internal/infra/payment"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Webhook の本文の上限
const maxWebhookBody = 64 << 10

// /checkout と決済Webhook
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/checkout")
	g.Use(auth)

	g.POST("", h.start)
	g.GET("/success", h.success)
	g.GET("/cancel", h.cancel)

	// 署名で検証するのでJWTは要らない
	e.POST("/webhooks/payment", h.webhook)
}

func (h *CheckoutHandler) start(c echo.Context) error {
	who, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.StartCheckout(c.Request().Context(), who)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 決済完了の戻り先。セッションをゲートウェイで確認してから確定する
func (h *CheckoutHandler) success(c echo.Context) error {
	who, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID := c.QueryParam("session_id")
	if _, err := h.uc.Finalize(c.Request().Context(), who, sessionID, model.OrderSourceCheckoutSuccess); err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/orders")
}

func (h *CheckoutHandler) cancel(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/cart")
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

func (h *CheckoutHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sig := c.Request().Header.Get(payment.SignatureHeader)
	if err := h.uc.HandleWebhook(c.Request().Context(), payload, sig); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, WebhookResponse{Received: true})
}
