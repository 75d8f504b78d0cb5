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
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvoiceExists   = errors.New("invoice already exists")
)

// InvoiceStorage описывает методы для работы со счетами.
type InvoiceStorage interface {
	// CreateInvoice создает запись о счете заказа.
	CreateInvoice(ctx context.Context, tx *sql.Tx, orderID int64, number string) (*models.Invoice, error)
	// SetInvoicePath сохраняет путь к файлу счета.
	SetInvoicePath(ctx context.Context, tx *sql.Tx, invoiceID int64, path string) error
	// GetInvoiceByOrderID возвращает счет заказа.
	GetInvoiceByOrderID(ctx context.Context, orderID int64) (*models.Invoice, error)
}

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) InvoiceStorage {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) CreateInvoice(ctx context.Context, tx *sql.Tx, orderID int64, number string) (*models.Invoice, error) {
	query := `INSERT INTO invoices (invoice_number, order_id, created_at)
	          VALUES ($1, $2, NOW())
	          RETURNING id, created_at`

	invoice := &models.Invoice{InvoiceNumber: number, OrderID: orderID}
	if err := tx.QueryRowContext(ctx, query, number, orderID).Scan(&invoice.ID, &invoice.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil, fmt.Errorf("order %d: %w", orderID, ErrInvoiceExists)
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoice, nil
}

func (r *invoiceRepository) SetInvoicePath(ctx context.Context, tx *sql.Tx, invoiceID int64, path string) error {
	res, err := tx.ExecContext(ctx, "UPDATE invoices SET pdf_file_path = $1 WHERE id = $2", path, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to set invoice path: %w", err)
	}
	return expectAffected(res, 1, ErrInvoiceNotFound)
}

func (r *invoiceRepository) GetInvoiceByOrderID(ctx context.Context, orderID int64) (*models.Invoice, error) {
	query := `
		SELECT id, invoice_number, order_id, COALESCE(pdf_file_path, ''), created_at
		FROM invoices
		WHERE order_id = $1`

	invoice := &models.Invoice{}
	err := r.db.QueryRowContext(ctx, query, orderID).
		Scan(&invoice.ID, &invoice.InvoiceNumber, &invoice.OrderID, &invoice.PDFFilePath, &invoice.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}
