package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/storage"
)

// OrderView - заказ для страницы подтверждения
type OrderView struct {
	models.OrderDetails
	InvoiceNumber string `json:"invoice_number,omitempty"`
	InvoicePath   string `json:"invoice_path,omitempty"`
}

// OrderService отдаёт заказы их владельцу.
type OrderService interface {
	Get(ctx context.Context, orderID, userID int64) (*OrderView, error)
	List(ctx context.Context, userID int64) ([]*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	invoiceRepo storage.InvoiceStorage
}

func NewOrderService(log *slog.Logger, orderRepo storage.OrderStorage, invoiceRepo storage.InvoiceStorage) OrderService {
	return &orderService{
		log:         log,
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
	}
}

// Get возвращает заказ пользователя; чужой заказ неотличим от несуществующего.
func (s *orderService) Get(ctx context.Context, orderID, userID int64) (*OrderView, error) {
	const op = "service.OrderService.Get"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.Int64("userID", userID))

	details, err := s.orderRepo.GetOrderDetails(ctx, orderID)
	if err != nil {
		if !errors.Is(err, storage.ErrOrderNotFound) {
			logger.Error("failed to get order", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if details.UserID != userID {
		logger.Warn("order belongs to another user")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
	}

	view := &OrderView{OrderDetails: *details}

	// без счёта заказ всё равно показываем
	inv, err := s.invoiceRepo.GetInvoiceByOrderID(ctx, orderID)
	switch {
	case errors.Is(err, storage.ErrInvoiceNotFound):
	case err != nil:
		logger.Error("failed to get invoice", slog.Any("error", err))
	default:
		view.InvoiceNumber = inv.InvoiceNumber
		// файл отдаётся только через маршрут с проверкой владельца
		if inv.PDFFilePath != "" {
			view.InvoicePath = InvoiceDownloadPath(orderID)
		}
	}
	return view, nil
}

func (s *orderService) List(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.List"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	return orders, nil
}

// InvoiceDownloadPath - маршрут скачивания счёта заказа
func InvoiceDownloadPath(orderID int64) string {
	return fmt.Sprintf("/api/orders/%d/invoice", orderID)
}
