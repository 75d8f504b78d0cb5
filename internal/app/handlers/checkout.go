package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/bakery-shop/internal/service"
	"github.com/shopspring/decimal"
)

// CheckoutResponse - ответ POST /api/checkout
type CheckoutResponse struct {
	OrderID          int64           `json:"order_id"`
	Total            decimal.Decimal `json:"total"`
	InvoiceAvailable bool            `json:"invoice_available"`
	InvoiceNumber    string          `json:"invoice_number,omitempty"`
	Message          string          `json:"message"`
	Warning          string          `json:"warning,omitempty"`
}

// CheckoutHandler обрабатывает POST /api/checkout.
// Заказ без счёта - это всё равно 201, проблема со счётом уходит в warning.
func CheckoutHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFrom(w, r, logger)
		if !ok {
			return
		}

		res, err := checkoutService.Checkout(r.Context(), userID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, service.ErrEmptyCart) {
				status = http.StatusConflict
			}
			logger.Warn("checkout failed", slog.String("kind", string(service.KindOf(err))), slog.Any("error", err))
			writeJSON(w, logger, status, MessageResponse{Message: service.UserMessage(err)})
			return
		}

		resp := CheckoutResponse{
			OrderID:          res.OrderID,
			Total:            res.Total,
			InvoiceAvailable: res.InvoiceAvailable,
			InvoiceNumber:    res.InvoiceNumber,
			Message:          "Order placed successfully!",
		}
		if res.InvoiceErr != nil {
			resp.Warning = service.UserMessage(res.InvoiceErr)
		}
		writeJSON(w, logger, http.StatusCreated, resp)
	}
}
