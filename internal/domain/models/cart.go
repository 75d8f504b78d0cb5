package models

import "time"

// CartLine - одна позиция корзины пользователя.
// На пару (UserID, ProductID) существует не больше одной строки.
type CartLine struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}
