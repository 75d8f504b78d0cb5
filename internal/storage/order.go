package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ в статусе pending с использованием транзакции.
	CreateOrder(ctx context.Context, tx *sql.Tx, userID int64, total decimal.Decimal) (*models.Order, error)
	// CreateOrderLine вставляет позицию заказа в той же транзакции.
	CreateOrderLine(ctx context.Context, tx *sql.Tx, line *models.OrderLine) error
	// GetOrderByID возвращает заказ без позиций.
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	// GetOrderDetails возвращает заказ с позициями и именем владельца.
	GetOrderDetails(ctx context.Context, orderID int64) (*models.OrderDetails, error)
	// GetOrdersByUserID возвращает заказы пользователя без позиций, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
}

// orderRepository - конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64, total decimal.Decimal) (*models.Order, error) {
	query := `INSERT INTO orders (user_id, total_amount, status, created_at)
	          VALUES ($1, $2, $3, NOW())
	          RETURNING id, created_at`

	order := &models.Order{
		UserID: userID,
		Total:  total,
		Status: models.OrderStatusPending,
	}
	if err := tx.QueryRowContext(ctx, query, userID, total, string(order.Status)).Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) CreateOrderLine(ctx context.Context, tx *sql.Tx, line *models.OrderLine) error {
	query := `INSERT INTO order_items (order_id, product_id, product_name, quantity, price)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err := tx.QueryRowContext(ctx, query, line.OrderID, line.ProductID, line.ProductName, line.Quantity, line.Price).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("failed to create order line: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	query := "SELECT id, user_id, total_amount, status, created_at FROM orders WHERE id = $1"

	order := &models.Order{}
	var status string
	err := r.db.QueryRowContext(ctx, query, orderID).
		Scan(&order.ID, &order.UserID, &order.Total, &status, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.Status = models.OrderStatus(status)
	return order, nil
}

// GetOrderDetails делает JOIN с users, чтобы получить имя клиента для счёта.
func (r *orderRepository) GetOrderDetails(ctx context.Context, orderID int64) (*models.OrderDetails, error) {
	query := `
		SELECT o.id, o.user_id, u.username, o.total_amount, o.status, o.created_at
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE o.id = $1`

	details := &models.OrderDetails{}
	var status string
	err := r.db.QueryRowContext(ctx, query, orderID).
		Scan(&details.ID, &details.UserID, &details.Username, &details.Total, &status, &details.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	details.Status = models.OrderStatus(status)

	lines, err := r.getOrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	details.Lines = lines
	return details, nil
}

func (r *orderRepository) getOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// GetOrdersByUserID возвращает список заказов для пользователя.
func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		var status string
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &status, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Status = models.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
