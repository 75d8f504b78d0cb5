package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/bakery-shop/internal/domain/models"
)

// ProductStorage описывает методы чтения каталога товаров.
type ProductStorage interface {
	// GetProductByID возвращает товар по идентификатору.
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// GetProductForShareTx читает товар внутри транзакции и блокирует строку от изменения до её завершения.
	GetProductForShareTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
}

// productRepository - конкретная реализация интерфейса ProductStorage.
type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

var ErrProductNotFound = errors.New("product not found")

const productColumns = "id, name, COALESCE(description, ''), price, COALESCE(image_url, ''), featured, active, created_at"

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	return scanProduct(row)
}

// GetProductForShareTx берёт разделяемую блокировку: цену нельзя поменять, пока идёт оформление заказа.
func (r *productRepository) GetProductForShareTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1 FOR SHARE", id)
	return scanProduct(row)
}

func scanProduct(row *sql.Row) (*models.Product, error) {
	p := &models.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Featured, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}
