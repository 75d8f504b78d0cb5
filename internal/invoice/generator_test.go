package invoice_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/bakery-shop/internal/artifact"
	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/invoice"
	"github.com/linemk/bakery-shop/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	details map[int64]*models.OrderDetails
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64, total decimal.Decimal) (*models.Order, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeOrderRepo) CreateOrderLine(ctx context.Context, tx *sql.Tx, line *models.OrderLine) error {
	return errors.New("not implemented")
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	d, ok := f.details[orderID]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return &d.Order, nil
}

func (f *fakeOrderRepo) GetOrderDetails(ctx context.Context, orderID int64) (*models.OrderDetails, error) {
	d, ok := f.details[orderID]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return d, nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	return nil, nil
}

type fakeInvoiceRepo struct {
	nextID   int64
	invoices map[int64]*models.Invoice // ключ: orderID
	pathErr  error
}

var _ storage.InvoiceStorage = (*fakeInvoiceRepo)(nil)

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{nextID: 100, invoices: make(map[int64]*models.Invoice)}
}

func (f *fakeInvoiceRepo) CreateInvoice(ctx context.Context, tx *sql.Tx, orderID int64, number string) (*models.Invoice, error) {
	if _, ok := f.invoices[orderID]; ok {
		return nil, storage.ErrInvoiceExists
	}
	f.nextID++
	inv := &models.Invoice{ID: f.nextID, OrderID: orderID, InvoiceNumber: number}
	f.invoices[orderID] = inv
	return inv, nil
}

func (f *fakeInvoiceRepo) SetInvoicePath(ctx context.Context, tx *sql.Tx, invoiceID int64, path string) error {
	if f.pathErr != nil {
		return f.pathErr
	}
	for _, inv := range f.invoices {
		if inv.ID == invoiceID {
			inv.PDFFilePath = path
			return nil
		}
	}
	return storage.ErrInvoiceNotFound
}

func (f *fakeInvoiceRepo) GetInvoiceByOrderID(ctx context.Context, orderID int64) (*models.Invoice, error) {
	inv, ok := f.invoices[orderID]
	if !ok {
		return nil, storage.ErrInvoiceNotFound
	}
	return inv, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(l invoice.Layout, w io.Writer) error {
	return errors.New("font not found")
}

func newTestGenerator(t *testing.T, db *sql.DB, invoiceRepo *fakeInvoiceRepo, root string, renderer invoice.Renderer) *invoice.Generator {
	t.Helper()
	store, err := artifact.NewLocalStore(root)
	require.NoError(t, err)
	orders := &fakeOrderRepo{details: map[int64]*models.OrderDetails{12: sampleDetails()}}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return invoice.NewGenerator(logger, db, orders, invoiceRepo, store, renderer, invoice.Branding{ShopName: "Bakery"})
}

func TestGenerator_Generate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	root := t.TempDir()
	invoiceRepo := newFakeInvoiceRepo()
	gen := newTestGenerator(t, db, invoiceRepo, root, invoice.NewPDFRenderer())

	inv, err := gen.Generate(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "INV-12-20260309", inv.InvoiceNumber)
	assert.Equal(t, "invoices/invoice_101.pdf", inv.PDFFilePath)
	assert.Equal(t, inv.PDFFilePath, invoiceRepo.invoices[12].PDFFilePath)

	data, err := os.ReadFile(filepath.Join(root, "invoices", "invoice_101.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(data[:5]))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerator_Generate_OrderNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gen := newTestGenerator(t, db, newFakeInvoiceRepo(), t.TempDir(), invoice.NewPDFRenderer())

	_, err = gen.Generate(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	// Транзакция не открывалась.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerator_Generate_RenderError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	invoiceRepo := newFakeInvoiceRepo()
	gen := newTestGenerator(t, db, invoiceRepo, t.TempDir(), failingRenderer{})

	_, err = gen.Generate(context.Background(), 12)
	assert.Error(t, err)
	assert.Empty(t, invoiceRepo.invoices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerator_Generate_StorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Ожидаем откат транзакции, так как файл не записался.
	mock.ExpectBegin()
	mock.ExpectRollback()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "invoices"), []byte("not a dir"), 0o644))
	gen := newTestGenerator(t, db, newFakeInvoiceRepo(), root, invoice.NewPDFRenderer())

	_, err = gen.Generate(context.Background(), 12)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerator_Generate_CommitErrorRemovesFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	root := t.TempDir()
	gen := newTestGenerator(t, db, newFakeInvoiceRepo(), root, invoice.NewPDFRenderer())

	_, err = gen.Generate(context.Background(), 12)
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(root, "invoices", "invoice_101.pdf"))
	assert.True(t, os.IsNotExist(statErr), "orphan file should be removed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerator_Generate_PathErrorRemovesFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	root := t.TempDir()
	invoiceRepo := newFakeInvoiceRepo()
	invoiceRepo.pathErr = errors.New("db error")
	gen := newTestGenerator(t, db, invoiceRepo, root, invoice.NewPDFRenderer())

	_, err = gen.Generate(context.Background(), 12)
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(root, "invoices", "invoice_101.pdf"))
	assert.True(t, os.IsNotExist(statErr), "orphan file should be removed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
