package invoice

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/linemk/bakery-shop/internal/artifact"
	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/storage"
)

// Renderer печатает раскладку счёта в конкретный формат.
type Renderer interface {
	Render(l Layout, w io.Writer) error
}

// ArtifactWriter - хранилище файлов счетов.
type ArtifactWriter interface {
	Put(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// Generator создаёт счёт для уже оформленного заказа: запись в invoices и PDF-файл.
type Generator struct {
	log         *slog.Logger
	db          *sql.DB
	orderRepo   storage.OrderStorage
	invoiceRepo storage.InvoiceStorage
	store       ArtifactWriter
	renderer    Renderer
	brand       Branding
}

func NewGenerator(
	log *slog.Logger,
	db *sql.DB,
	orderRepo storage.OrderStorage,
	invoiceRepo storage.InvoiceStorage,
	store ArtifactWriter,
	renderer Renderer,
	brand Branding,
) *Generator {
	return &Generator{
		log:         log,
		db:          db,
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		store:       store,
		renderer:    renderer,
		brand:       brand,
	}
}

// Generate формирует и сохраняет счёт.
// Запись о счёте, файл и путь к нему фиксируются вместе: при любой ошибке
// транзакция откатывается, а уже записанный файл удаляется.
func (g *Generator) Generate(ctx context.Context, orderID int64) (*models.Invoice, error) {
	const op = "invoice.Generator.Generate"
	logger := g.log.With(slog.String("op", op), slog.Int64("orderID", orderID))

	details, err := g.orderRepo.GetOrderDetails(ctx, orderID)
	if err != nil {
		logger.Error("failed to load order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load order: %w", op, err)
	}

	number := Number(details.ID, details.CreatedAt)
	var buf bytes.Buffer
	if err := g.renderer.Render(BuildLayout(details, number, g.brand), &buf); err != nil {
		logger.Error("failed to render invoice", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	inv, err := g.invoiceRepo.CreateInvoice(ctx, tx, orderID, number)
	if err != nil {
		g.rollback(logger, tx)
		logger.Error("failed to create invoice", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create invoice: %w", op, err)
	}

	key := artifact.InvoiceKey(inv.ID)
	if err := g.store.Put(ctx, key, buf.Bytes()); err != nil {
		g.rollback(logger, tx)
		logger.Error("failed to store invoice file", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to store invoice file: %w", op, err)
	}

	if err := g.invoiceRepo.SetInvoicePath(ctx, tx, inv.ID, key); err != nil {
		g.rollback(logger, tx)
		g.discard(ctx, logger, key)
		logger.Error("failed to record invoice path", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to record invoice path: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		g.discard(ctx, logger, key)
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	inv.PDFFilePath = key
	logger.Info("invoice generated", slog.String("number", number), slog.String("key", key))
	return inv, nil
}

func (g *Generator) rollback(logger *slog.Logger, tx *sql.Tx) {
	if rbErr := tx.Rollback(); rbErr != nil {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}

func (g *Generator) discard(ctx context.Context, logger *slog.Logger, key string) {
	if err := g.store.Remove(ctx, key); err != nil {
		logger.Error("failed to remove orphan invoice file", slog.String("key", key), slog.Any("error", err))
	}
}
