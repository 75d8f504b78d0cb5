package invoice_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/linemk/bakery-shop/internal/invoice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDetails() *models.OrderDetails {
	return &models.OrderDetails{
		Order: models.Order{
			ID:        12,
			UserID:    3,
			Total:     decimal.RequireFromString("15.48"),
			Status:    models.OrderStatusPending,
			CreatedAt: time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC),
			Lines: []models.OrderLine{
				{ID: 1, OrderID: 12, ProductID: 1, ProductName: "Croissant", Quantity: 2, Price: decimal.RequireFromString("5.99")},
				{ID: 2, OrderID: 12, ProductID: 2, ProductName: "Baguette", Quantity: 1, Price: decimal.RequireFromString("3.50")},
			},
		},
		Username: "alice",
	}
}

func TestNumber(t *testing.T) {
	at := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "INV-42-20261016", invoice.Number(42, at))

	// Дата берётся в UTC, а не в локальной зоне заказа.
	loc := time.FixedZone("UTC+3", 3*60*60)
	assert.Equal(t, "INV-7-20261015", invoice.Number(7, time.Date(2026, 10, 16, 1, 0, 0, 0, loc)))
}

func TestBuildLayout(t *testing.T) {
	brand := invoice.Branding{ShopName: "Bakery", Tagline: "Fresh", Contact: "hello@example.com"}
	l := invoice.BuildLayout(sampleDetails(), "INV-12-20260309", brand)

	assert.Equal(t, "INV-12-20260309", l.Number)
	assert.Equal(t, "alice", l.Client)
	assert.Equal(t, "09/03/2026", l.Date)
	assert.Equal(t, "Bakery", l.ShopName)
	require.Len(t, l.Rows, 2)
	assert.Equal(t, invoice.Row{Product: "Croissant", Quantity: "2", UnitPrice: "$5.99", LineTotal: "$11.98"}, l.Rows[0])
	assert.Equal(t, invoice.Row{Product: "Baguette", Quantity: "1", UnitPrice: "$3.50", LineTotal: "$3.50"}, l.Rows[1])
	assert.Equal(t, "$15.48", l.Total)
}

func TestBuildLayout_TotalCopiedFromOrder(t *testing.T) {
	details := sampleDetails()
	// Итог заказа намеренно не совпадает с суммой строк: в счёт попадает именно он.
	details.Total = decimal.RequireFromString("100")

	l := invoice.BuildLayout(details, "INV-12-20260309", invoice.Branding{})
	assert.Equal(t, "$100.00", l.Total)
}

func TestBuildLayout_TruncatesLongNames(t *testing.T) {
	details := sampleDetails()
	details.Lines[0].ProductName = "Sourdough country loaf with seeds"
	details.Lines[1].ProductName = "Exactly twenty-five chars"
	details.Username = ""

	l := invoice.BuildLayout(details, "INV-12-20260309", invoice.Branding{})
	assert.Equal(t, "Sourdough country loaf...", l.Rows[0].Product)
	assert.Equal(t, "Exactly twenty-five chars", l.Rows[1].Product)
	assert.Equal(t, "Unknown client", l.Client)
}

func TestBuildLayout_TruncatesByRunes(t *testing.T) {
	details := sampleDetails()
	details.Lines[0].ProductName = strings.Repeat("ñ", 30)

	l := invoice.BuildLayout(details, "INV-12-20260309", invoice.Branding{})
	assert.Equal(t, strings.Repeat("ñ", 22)+"...", l.Rows[0].Product)
}

func TestPDFRenderer_Render(t *testing.T) {
	details := sampleDetails()
	// Много строк, чтобы таблица ушла на вторую страницу.
	for i := 0; i < 40; i++ {
		details.Lines = append(details.Lines, models.OrderLine{ProductName: "Panadería bun", Quantity: 1, Price: decimal.RequireFromString("1.00")})
	}
	l := invoice.BuildLayout(details, "INV-12-20260309", invoice.Branding{ShopName: "Panadería Delicias", Contact: "x@example.com"})

	var buf bytes.Buffer
	err := invoice.NewPDFRenderer().Render(l, &buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "output should be a PDF document")
	assert.True(t, bytes.Contains(buf.Bytes(), []byte("%%EOF")))
}
