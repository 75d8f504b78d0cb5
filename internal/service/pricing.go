package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// PricedLine - строка корзины с ценой, зафиксированной на момент оформления
type PricedLine struct {
	CartLineID  int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// LineTotal возвращает стоимость строки
func (p PricedLine) LineTotal() decimal.Decimal {
	return lineTotal(p.UnitPrice, p.Quantity)
}

func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// PriceResolver определяет актуальные цены для строк корзины.
type PriceResolver interface {
	Resolve(ctx context.Context, tx *sql.Tx, lines []*models.CartLine) ([]PricedLine, error)
}

type priceResolver struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewPriceResolver(log *slog.Logger, productRepo storage.ProductStorage) PriceResolver {
	return &priceResolver{
		log:         log,
		productRepo: productRepo,
	}
}

// Resolve читает цены внутри транзакции оформления.
// Если товар из корзины удалён, падает вся операция: пропуск строки рассинхронизирует сумму корзины и заказа.
func (r *priceResolver) Resolve(ctx context.Context, tx *sql.Tx, lines []*models.CartLine) ([]PricedLine, error) {
	const op = "service.PriceResolver.Resolve"

	priced := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		product, err := r.productRepo.GetProductForShareTx(ctx, tx, line.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				r.log.Error("cart references a deleted product",
					slog.String("op", op),
					slog.Int64("userID", line.UserID),
					slog.Int64("cartLineID", line.ID),
					slog.Int64("productID", line.ProductID),
				)
				return nil, newError(KindProductMissing, op, fmt.Errorf("cart line %d, product %d: %w", line.ID, line.ProductID, err))
			}
			r.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
			return nil, newError(KindPersistence, op, err)
		}

		priced = append(priced, PricedLine{
			CartLineID:  line.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		})
	}
	return priced, nil
}
