package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus - стадия жизненного цикла заказа
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Order представляет оформленный заказ.
// Total вычисляется один раз при оформлении и больше не пересчитывается.
type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Total     decimal.Decimal `json:"total_amount"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Lines     []OrderLine     `json:"items,omitempty"`
}

// OrderLine - неизменяемый снимок позиции заказа на момент оформления
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"` // цена за единицу на момент заказа
}

// LineTotal возвращает стоимость позиции (только для отображения)
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderDetails - заказ вместе с владельцем, нужен для формирования счёта
type OrderDetails struct {
	Order
	Username string `json:"username"`
}
