package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/bakery-shop/internal/artifact"
	"github.com/linemk/bakery-shop/internal/storage"
)

// InvoiceDownload - содержимое файла счёта для отдачи клиенту
type InvoiceDownload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ArtifactReader читает сохранённые файлы
type ArtifactReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// InvoiceService отдаёт файл счёта владельцу заказа.
type InvoiceService interface {
	Download(ctx context.Context, orderID, userID int64) (*InvoiceDownload, error)
}

type invoiceService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	invoiceRepo storage.InvoiceStorage
	store       ArtifactReader
}

func NewInvoiceService(log *slog.Logger, orderRepo storage.OrderStorage, invoiceRepo storage.InvoiceStorage, store ArtifactReader) InvoiceService {
	return &invoiceService{
		log:         log,
		orderRepo:   orderRepo,
		invoiceRepo: invoiceRepo,
		store:       store,
	}
}

// Download возвращает PDF счёта.
// Чужой заказ, отсутствие счёта и пропавший файл - всё это ErrArtifactNotFound.
func (s *invoiceService) Download(ctx context.Context, orderID, userID int64) (*InvoiceDownload, error) {
	const op = "service.InvoiceService.Download"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.Int64("userID", userID))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, newError(KindArtifactNotFound, op, err)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	if order.UserID != userID {
		logger.Warn("order belongs to another user")
		return nil, newError(KindArtifactNotFound, op, storage.ErrOrderNotFound)
	}

	inv, err := s.invoiceRepo.GetInvoiceByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrInvoiceNotFound) {
			return nil, newError(KindArtifactNotFound, op, err)
		}
		logger.Error("failed to get invoice", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get invoice: %w", op, err)
	}
	if inv.PDFFilePath == "" {
		return nil, newError(KindArtifactNotFound, op, errors.New("invoice has no file"))
	}

	data, err := s.store.Get(ctx, inv.PDFFilePath)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			logger.Warn("invoice file is missing", slog.String("path", inv.PDFFilePath))
			return nil, newError(KindArtifactNotFound, op, err)
		}
		logger.Error("failed to read invoice file", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to read invoice file: %w", op, err)
	}

	return &InvoiceDownload{
		FileName:    fmt.Sprintf("invoice_%d.pdf", orderID),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}
