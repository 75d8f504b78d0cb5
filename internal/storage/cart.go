package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/bakery-shop/internal/domain/models"
)

var (
	ErrCartLineNotFound = errors.New("cart line not found")
	// ErrCartLinesChanged - строки корзины успели зарезервировать или удалить параллельно
	ErrCartLinesChanged = errors.New("cart lines changed concurrently")
)

// CartStorage описывает методы работы с корзиной пользователя.
// Строки, зарезервированные под заказ (reserved_order_id IS NOT NULL), корзине больше не принадлежат.
type CartStorage interface {
	// ListLines возвращает свободные строки корзины пользователя.
	ListLines(ctx context.Context, userID int64) ([]*models.CartLine, error)
	// ListLinesForUpdate читает свободные строки и блокирует их до конца транзакции.
	ListLinesForUpdate(ctx context.Context, tx *sql.Tx, userID int64) ([]*models.CartLine, error)
	// AddLine добавляет товар, увеличивая количество, если строка для товара уже есть.
	AddLine(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error)
	// UpdateQuantity выставляет количество в строке корзины.
	UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) error
	// RemoveLine удаляет строку корзины.
	RemoveLine(ctx context.Context, userID, lineID int64) error
	// ReserveLines закрепляет строки за заказом; должны зарезервироваться ровно все lineIDs.
	ReserveLines(ctx context.Context, tx *sql.Tx, userID, orderID int64, lineIDs []int64) error
	// ClearLines удаляет строки, зарезервированные за заказом.
	ClearLines(ctx context.Context, userID, orderID int64, lineIDs []int64) (int64, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

const cartColumns = "id, user_id, product_id, quantity, created_at"

func (r *cartRepository) ListLines(ctx context.Context, userID int64) ([]*models.CartLine, error) {
	query := `
		SELECT ` + cartColumns + `
		FROM cart_items
		WHERE user_id = $1 AND reserved_order_id IS NULL
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	return scanCartLines(rows)
}

func (r *cartRepository) ListLinesForUpdate(ctx context.Context, tx *sql.Tx, userID int64) ([]*models.CartLine, error) {
	// повторная отправка формы ждёт здесь, пока первая транзакция не завершится,
	// после чего зарезервированные строки в выборку уже не попадают
	query := `
		SELECT ` + cartColumns + `
		FROM cart_items
		WHERE user_id = $1 AND reserved_order_id IS NULL
		ORDER BY id
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart lines: %w", err)
	}
	return scanCartLines(rows)
}

func scanCartLines(rows *sql.Rows) ([]*models.CartLine, error) {
	defer rows.Close()

	var lines []*models.CartLine
	for rows.Next() {
		line := &models.CartLine{}
		if err := rows.Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepository) AddLine(ctx context.Context, userID, productID int64, quantity int) (*models.CartLine, error) {
	// зарезервированная строка ещё занимает пару (user_id, product_id) до очистки,
	// поэтому при конфликте с ней строка "освобождается" с новым количеством
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = CASE WHEN cart_items.reserved_order_id IS NULL
				THEN cart_items.quantity + EXCLUDED.quantity
				ELSE EXCLUDED.quantity END,
			reserved_order_id = NULL
		RETURNING ` + cartColumns

	line := &models.CartLine{}
	err := r.db.QueryRowContext(ctx, query, userID, productID, quantity).
		Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart line: %w", err)
	}
	return line, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, userID, lineID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE id = $2 AND user_id = $3 AND reserved_order_id IS NULL",
		quantity, lineID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	return expectAffected(res, 1, ErrCartLineNotFound)
}

func (r *cartRepository) RemoveLine(ctx context.Context, userID, lineID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1 AND user_id = $2 AND reserved_order_id IS NULL",
		lineID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return expectAffected(res, 1, ErrCartLineNotFound)
}

func (r *cartRepository) ReserveLines(ctx context.Context, tx *sql.Tx, userID, orderID int64, lineIDs []int64) error {
	query := `
		UPDATE cart_items SET reserved_order_id = $1
		WHERE user_id = $2 AND id = ANY($3) AND reserved_order_id IS NULL`

	res, err := tx.ExecContext(ctx, query, orderID, userID, pq.Array(lineIDs))
	if err != nil {
		return fmt.Errorf("failed to reserve cart lines: %w", err)
	}
	return expectAffected(res, int64(len(lineIDs)), ErrCartLinesChanged)
}

func (r *cartRepository) ClearLines(ctx context.Context, userID, orderID int64, lineIDs []int64) (int64, error) {
	query := `
		DELETE FROM cart_items
		WHERE user_id = $1 AND reserved_order_id = $2 AND id = ANY($3)`

	res, err := r.db.ExecContext(ctx, query, userID, orderID, pq.Array(lineIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart lines: %w", err)
	}
	return res.RowsAffected()
}

func expectAffected(res sql.Result, want int64, errMismatch error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != want {
		return errMismatch
	}
	return nil
}
