package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a line in a shopper's cart. Price is captured at
// add-to-cart time and carried through to the order snapshot.
type CartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// CartSnapshot is the cart store's state for one user at a point in time.
// It is consumed once at order creation and then cleared; it is never
// persisted as part of the order.
type CartSnapshot struct {
	UserID     uuid.UUID       `json:"userId"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Empty reports whether the snapshot has no line items.
func (c *CartSnapshot) Empty() bool {
	return c == nil || len(c.Items) == 0
}
