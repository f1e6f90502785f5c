package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a fragrance in the catalogue. The core only reads
// name/price/stock and adjusts the stock counter; the richer catalogue
// fields (notes, family, imagery) belong to the browsing surface.
type Product struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Slug      string          `json:"slug" db:"slug"`
	Name      string          `json:"name" db:"name"`
	Brand     string          `json:"brand" db:"brand"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}
