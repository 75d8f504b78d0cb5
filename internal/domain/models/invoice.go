package models

import "time"

// Invoice - запись о сгенерированном счёте заказа (не больше одного на заказ)
type Invoice struct {
	ID            int64     `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	OrderID       int64     `json:"order_id"`
	PDFFilePath   string    `json:"pdf_file_path,omitempty"` // пусто, пока файл не записан
	CreatedAt     time.Time `json:"created_at"`
}
