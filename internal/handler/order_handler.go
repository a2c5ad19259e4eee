package handler

import (
	"fmt"
	"net/http"
	"time"

	"shop/internal/domain/model"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	checkout *usecase.CheckoutUsecase
	invoices *usecase.InvoiceUsecase
}

func NewOrderHandler(checkout *usecase.CheckoutUsecase, invoices *usecase.InvoiceUsecase) *OrderHandler {
	return &OrderHandler{checkout: checkout, invoices: invoices}
}

type OrderResponse struct {
	ID        string                    `json:"id"`
	Email     string                    `json:"email"`
	Lines     []model.OrderLineSnapshot `json:"lines"`
	Total     decimal.Decimal           `json:"total"`
	CreatedAt time.Time                 `json:"created_at"`
}

func toOrderResponse(o model.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID,
		Email:     o.Email,
		Lines:     o.Lines,
		Total:     o.Total().Round(2),
		CreatedAt: o.CreatedAt,
	}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/orders")
	g.Use(auth)

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id/invoice", h.invoice)
}

func (h *OrderHandler) create(c echo.Context) error {
	who, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get("X-Idempotency-Key")

	if _, err := h.checkout.Finalize(c.Request().Context(), who, idemKey, model.OrderSourcePlaceOrder); err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/orders")
}

func (h *OrderHandler) list(c echo.Context) error {
	who, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	orders, err := h.checkout.ListOrders(c.Request().Context(), who)
	if err != nil {
		return writeError(c, err)
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) invoice(c echo.Context) error {
	who, ok := getIdentity(c)
	if !ok {
		return unauthorized(c)
	}

	orderID := c.Param("id")
	w := &pdfWriter{c: c, filename: usecase.InvoiceFileName(orderID)}
	if err := h.invoices.Invoice(c.Request().Context(), who, orderID, w); err != nil {
		if w.started {
			// ヘッダー送信後はステータスを変えられない
			return err
		}
		return writeError(c, err)
	}
	if !w.started {
		w.start()
	}
	return nil
}

// pdfWriter は最初の書き込みでヘッダーを送る。
// 所有チェックで失敗したときはJSONのエラーを返せるようにする。
type pdfWriter struct {
	c        echo.Context
	filename string
	started  bool
}

func (w *pdfWriter) start() {
	h := w.c.Response().Header()
	h.Set(echo.HeaderContentType, "application/pdf")
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", w.filename))
	w.c.Response().WriteHeader(http.StatusOK)
	w.started = true
}

func (w *pdfWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.start()
	}
	return w.c.Response().Write(p)
}
