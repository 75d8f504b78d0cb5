package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/lib/metrics"
	"github.com/linemk/bakery-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// CheckoutState - шаг оформления заказа
type CheckoutState string

const (
	StateValidating        CheckoutState = "validating"
	StateCommitting        CheckoutState = "committing"
	StateGeneratingInvoice CheckoutState = "generating_invoice"
	StateClearingCart      CheckoutState = "clearing_cart"
	StateDone              CheckoutState = "done"
	StateFailed            CheckoutState = "failed"
)

// CheckoutResult - результат успешного (возможно, частично) оформления
type CheckoutResult struct {
	OrderID          int64           `json:"order_id"`
	Total            decimal.Decimal `json:"total"`
	InvoiceAvailable bool            `json:"invoice_available"`
	InvoiceNumber    string          `json:"invoice_number,omitempty"`
	// InvoiceErr заполнен, если заказ оформлен, а счёт сформировать не удалось
	InvoiceErr error `json:"-"`
}

// InvoiceGenerator формирует счёт для оформленного заказа.
type InvoiceGenerator interface {
	Generate(ctx context.Context, orderID int64) (*models.Invoice, error)
}

// CheckoutService превращает корзину пользователя в заказ.
type CheckoutService interface {
	Checkout(ctx context.Context, userID int64) (*CheckoutResult, error)
}

type checkoutService struct {
	log       *slog.Logger
	db        *sql.DB
	cartRepo  storage.CartStorage
	resolver  PriceResolver
	assembler OrderAssembler
	invoices  InvoiceGenerator
	metrics   *metrics.CheckoutMetrics
}

func NewCheckoutService(
	log *slog.Logger,
	db *sql.DB,
	cartRepo storage.CartStorage,
	resolver PriceResolver,
	assembler OrderAssembler,
	invoices InvoiceGenerator,
	m *metrics.CheckoutMetrics,
) CheckoutService {
	return &checkoutService{
		log:       log,
		db:        db,
		cartRepo:  cartRepo,
		resolver:  resolver,
		assembler: assembler,
		invoices:  invoices,
		metrics:   m,
	}
}

// Checkout оформляет заказ.
// Проверка корзины, фиксация цен, запись заказа и резервирование строк корзины
// выполняются в одной транзакции; при ошибке она откатывается и корзина не меняется.
// Счёт и очистка корзины идут после коммита: ошибка счёта не отменяет заказ.
func (s *checkoutService) Checkout(ctx context.Context, userID int64) (result *CheckoutResult, err error) {
	const op = "service.CheckoutService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting checkout")

	start := time.Now()
	defer func() {
		s.metrics.Observe(outcome(result, err), time.Since(start))
	}()

	order, lineIDs, err := s.commit(ctx, logger, userID)
	if err != nil {
		s.enter(logger, StateFailed)
		return nil, err
	}

	// заказ уже зафиксирован: отмена запроса не должна оборвать счёт и очистку корзины
	ctx = context.WithoutCancel(ctx)
	result = &CheckoutResult{OrderID: order.ID, Total: order.Total}

	s.enter(logger, StateGeneratingInvoice)
	inv, invErr := s.invoices.Generate(ctx, order.ID)
	if invErr != nil {
		result.InvoiceErr = newError(KindInvoiceGeneration, op, invErr)
		logger.Warn("order placed, invoice unavailable", slog.Int64("orderID", order.ID), slog.Any("error", invErr))
	} else {
		result.InvoiceAvailable = true
		result.InvoiceNumber = inv.InvoiceNumber
	}

	s.enter(logger, StateClearingCart)
	cleared, clearErr := s.cartRepo.ClearLines(ctx, userID, order.ID, lineIDs)
	switch {
	case clearErr != nil:
		// строки остаются зарезервированными за заказом и в корзине уже не видны
		logger.Error("failed to clear cart", slog.Int64("orderID", order.ID), slog.Any("error", clearErr))
	case cleared != int64(len(lineIDs)):
		logger.Warn("cart cleared partially", slog.Int64("cleared", cleared), slog.Int("expected", len(lineIDs)))
	}

	s.enter(logger, StateDone)
	logger.Info("checkout completed",
		slog.Int64("orderID", order.ID),
		slog.String("total", order.Total.StringFixed(2)),
		slog.Bool("invoiceAvailable", result.InvoiceAvailable),
	)
	return result, nil
}

// commit выполняет шаги Validating и Committing в одной транзакции.
func (s *checkoutService) commit(ctx context.Context, logger *slog.Logger, userID int64) (*models.Order, []int64, error) {
	const op = "service.CheckoutService.commit"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, nil, newError(KindPersistence, op, err)
	}

	s.enter(logger, StateValidating)
	lines, err := s.cartRepo.ListLinesForUpdate(ctx, tx, userID)
	if err != nil {
		s.rollback(logger, tx)
		logger.Error("failed to read cart", slog.Any("error", err))
		return nil, nil, newError(KindPersistence, op, err)
	}
	if len(lines) == 0 {
		s.rollback(logger, tx)
		logger.Warn("cart is empty")
		return nil, nil, newError(KindEmptyCart, op, nil)
	}

	s.enter(logger, StateCommitting)
	priced, err := s.resolver.Resolve(ctx, tx, lines)
	if err != nil {
		s.rollback(logger, tx)
		return nil, nil, err
	}

	order, err := s.assembler.Assemble(ctx, tx, userID, priced)
	if err != nil {
		s.rollback(logger, tx)
		return nil, nil, err
	}

	lineIDs := make([]int64, len(lines))
	for i, line := range lines {
		lineIDs[i] = line.ID
	}
	if err := s.cartRepo.ReserveLines(ctx, tx, userID, order.ID, lineIDs); err != nil {
		s.rollback(logger, tx)
		if errors.Is(err, storage.ErrCartLinesChanged) {
			// параллельный checkout забрал строки раньше нас
			logger.Warn("cart lines taken by a concurrent checkout")
			return nil, nil, newError(KindEmptyCart, op, err)
		}
		logger.Error("failed to reserve cart lines", slog.Any("error", err))
		return nil, nil, newError(KindPersistence, op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, nil, newError(KindPersistence, op, err)
	}
	return order, lineIDs, nil
}

func (s *checkoutService) enter(logger *slog.Logger, state CheckoutState) {
	logger.Debug("checkout state", slog.String("state", string(state)))
}

func (s *checkoutService) rollback(logger *slog.Logger, tx *sql.Tx) {
	if rbErr := tx.Rollback(); rbErr != nil {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}

func outcome(result *CheckoutResult, err error) string {
	if err != nil {
		if kind := KindOf(err); kind != "" {
			return string(kind)
		}
		return string(KindPersistence)
	}
	if result != nil && !result.InvoiceAvailable {
		return metrics.OutcomeDegraded
	}
	return metrics.OutcomeSuccess
}
