package invoice

import (
	"fmt"
	"time"
)

// Number формирует номер счета вида INV-<orderID>-<YYYYMMDD>.
// Дата берётся в UTC; уникальность обеспечивает идентификатор заказа.
func Number(orderID int64, committedAt time.Time) string {
	return fmt.Sprintf("INV-%d-%s", orderID, committedAt.UTC().Format("20060102"))
}
