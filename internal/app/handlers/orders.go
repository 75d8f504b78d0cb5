package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/service"
	"github.com/linemk/bakery-shop/internal/storage"
)

// OrdersHandler обрабатывает GET /api/orders
func OrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFrom(w, r, logger)
		if !ok {
			return
		}

		orders, err := orderService.List(r.Context(), userID)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// OrderHandler обрабатывает GET /api/orders/{id}
func OrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFrom(w, r, logger)
		if !ok {
			return
		}
		orderID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		view, err := orderService.Get(r.Context(), orderID, userID)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get order", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, http.StatusOK, view)
	}
}

// InvoiceDownloadHandler обрабатывает GET /api/orders/{id}/invoice и отдаёт PDF вложением
func InvoiceDownloadHandler(log *slog.Logger, invoiceService service.InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.InvoiceDownloadHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := userIDFrom(w, r, logger)
		if !ok {
			return
		}
		orderID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		dl, err := invoiceService.Download(r.Context(), orderID, userID)
		if err != nil {
			if errors.Is(err, service.ErrArtifactNotFound) {
				http.Error(w, service.UserMessage(err), http.StatusNotFound)
				return
			}
			logger.Error("failed to download invoice", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", dl.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
		w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(dl.Data); err != nil {
			logger.Error("failed to write invoice", slog.Any("error", err))
		}
	}
}
