package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/storage"
	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// CartItemView - строка корзины для отображения
type CartItemView struct {
	LineID    int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available bool            `json:"available"`
}

// CartView - корзина с итоговой суммой
type CartView struct {
	Items []CartItemView  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// CartService определяет операции над корзиной пользователя.
type CartService interface {
	View(ctx context.Context, userID int64) (*CartView, error)
	Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error)
	Update(ctx context.Context, userID, lineID int64, quantity int) error
	Remove(ctx context.Context, userID, lineID int64) error
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// View собирает корзину с текущими ценами каталога.
// Строки с удалёнными товарами показываются как недоступные и в сумму не входят.
func (s *cartService) View(ctx context.Context, userID int64) (*CartView, error) {
	const op = "service.CartService.View"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	lines, err := s.cartRepo.ListLines(ctx, userID)
	if err != nil {
		logger.Error("failed to list cart lines", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list cart lines: %w", op, err)
	}

	view := &CartView{Items: make([]CartItemView, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		item := CartItemView{LineID: line.ID, ProductID: line.ProductID, Quantity: line.Quantity}

		product, err := s.productRepo.GetProductByID(ctx, line.ProductID)
		switch {
		case errors.Is(err, storage.ErrProductNotFound):
			logger.Warn("cart line references a deleted product", slog.Int64("productID", line.ProductID))
		case err != nil:
			logger.Error("failed to get product", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
		default:
			item.Name = product.Name
			item.UnitPrice = product.Price
			item.LineTotal = lineTotal(product.Price, line.Quantity)
			item.Available = true
			view.Total = view.Total.Add(item.LineTotal)
		}
		view.Items = append(view.Items, item)
	}
	return view, nil
}

// Add кладёт товар в корзину; повторное добавление увеличивает количество
func (s *cartService) Add(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error) {
	const op = "service.CartService.Add"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if quantity < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		logger.Warn("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	line, err := s.cartRepo.AddLine(ctx, userID, productID, quantity)
	if err != nil {
		logger.Error("failed to add cart line", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to add cart line: %w", op, err)
	}
	logger.Info("product added to cart", slog.Int("quantity", line.Quantity))
	return line, nil
}

// Update меняет количество; ноль и меньше удаляет строку
func (s *cartService) Update(ctx context.Context, userID, lineID int64, quantity int) error {
	const op = "service.CartService.Update"

	if quantity <= 0 {
		return s.Remove(ctx, userID, lineID)
	}
	if err := s.cartRepo.UpdateQuantity(ctx, userID, lineID, quantity); err != nil {
		s.log.Error("failed to update cart line", slog.String("op", op), slog.Int64("lineID", lineID), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *cartService) Remove(ctx context.Context, userID, lineID int64) error {
	const op = "service.CartService.Remove"

	if err := s.cartRepo.RemoveLine(ctx, userID, lineID); err != nil {
		s.log.Error("failed to remove cart line", slog.String("op", op), slog.Int64("lineID", lineID), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
