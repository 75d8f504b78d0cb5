package invoice

import (
	"strconv"
	"unicode/utf8"

	"github.com/linemk/bakery-shop/internal/domain/models"
	"github.com/shopspring/decimal"
)

const (
	maxNameWidth   = 25
	truncatedWidth = 22
)

// Branding - реквизиты магазина, печатаемые в шапке и подвале счёта
type Branding struct {
	ShopName string
	Tagline  string
	Contact  string
}

// Row - строка таблицы товаров, уже отформатированная для печати
type Row struct {
	Product   string
	Quantity  string
	UnitPrice string
	LineTotal string
}

// Layout - содержимое документа без привязки к формату вывода
type Layout struct {
	Branding
	Number string
	Client string
	Date   string
	Rows   []Row
	Total  string
}

// BuildLayout раскладывает заказ по блокам счёта.
// Итог копируется из заказа и не пересчитывается по строкам.
func BuildLayout(details *models.OrderDetails, number string, brand Branding) Layout {
	client := details.Username
	if client == "" {
		client = "Unknown client"
	}
	date := "Date unavailable"
	if !details.CreatedAt.IsZero() {
		date = details.CreatedAt.UTC().Format("02/01/2006")
	}

	rows := make([]Row, 0, len(details.Lines))
	for _, line := range details.Lines {
		name := line.ProductName
		if name == "" {
			name = "Deleted product"
		}
		rows = append(rows, Row{
			Product:   truncateName(name),
			Quantity:  strconv.Itoa(line.Quantity),
			UnitPrice: formatMoney(line.Price),
			LineTotal: formatMoney(line.LineTotal()),
		})
	}

	return Layout{
		Branding: brand,
		Number:   number,
		Client:   client,
		Date:     date,
		Rows:     rows,
		Total:    formatMoney(details.Total),
	}
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxNameWidth {
		return name
	}
	runes := []rune(name)
	return string(runes[:truncatedWidth]) + "..."
}

func formatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
