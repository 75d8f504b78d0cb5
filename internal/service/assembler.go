package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// OrderAssembler превращает строки с ценами в заказ и его позиции.
type OrderAssembler interface {
	Assemble(ctx context.Context, tx *sql.Tx, userID int64, priced []PricedLine) (*models.Order, error)
}

type orderAssembler struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
}

func NewOrderAssembler(log *slog.Logger, orderRepo storage.OrderStorage) OrderAssembler {
	return &orderAssembler{
		log:       log,
		orderRepo: orderRepo,
	}
}

// Assemble пишет заказ и все позиции в переданной транзакции.
// Итог считается здесь один раз и дальше только читается.
func (a *orderAssembler) Assemble(ctx context.Context, tx *sql.Tx, userID int64, priced []PricedLine) (*models.Order, error) {
	const op = "service.OrderAssembler.Assemble"
	logger := a.log.With(slog.String("op", op), slog.Int64("userID", userID))

	total := decimal.Zero
	for _, p := range priced {
		total = total.Add(p.LineTotal())
	}

	order, err := a.orderRepo.CreateOrder(ctx, tx, userID, total)
	if err != nil {
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, newError(KindPersistence, op, err)
	}

	order.Lines = make([]models.OrderLine, 0, len(priced))
	for _, p := range priced {
		line := models.OrderLine{
			OrderID:     order.ID,
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			Price:       p.UnitPrice,
		}
		if err := a.orderRepo.CreateOrderLine(ctx, tx, &line); err != nil {
			logger.Error("failed to create order line", slog.Int64("productID", p.ProductID), slog.Any("error", err))
			return nil, newError(KindPersistence, op, err)
		}
		order.Lines = append(order.Lines, line)
	}

	logger.Debug("order assembled", slog.Int64("orderID", order.ID), slog.String("total", total.StringFixed(2)))
	return order, nil
}
