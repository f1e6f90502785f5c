package repository

import (
	"context"

	"scentrale/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for catalogue data access.
type ProductRepository interface {
	// GetByID retrieves a single product by its primary key.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetBySlug retrieves a single product by its public slug.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// Resolve resolves a raw product reference that may be either a primary
	// key or a slug. Returns nil when no product matches.
	Resolve(ctx context.Context, ref string) (*model.Product, error)

	// DecrementStock atomically subtracts quantity from a product's stock
	// counter within the provided transaction. The update carries a
	// non-negative floor: it fails with ErrOutOfStock when current stock is
	// insufficient.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error

	// IncrementStock atomically adds quantity back to a product's stock
	// counter within the provided transaction.
	IncrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) error
}

// OrderRepository defines the interface for order ledger access.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items. Returns
	// nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByUser retrieves all orders owned by a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// UpdatePaymentStatus conditionally moves an order's payment status from
	// one state to another, optionally recording the gateway transaction ID.
	// Returns false when the guard did not match (the order was concurrently
	// mutated or does not exist).
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, transactionID *string) (bool, error)

	// Cancel flips an order to cancelled/refunded within the provided
	// transaction, guarded against orders that already shipped, delivered or
	// were cancelled. Returns false when the guard did not match.
	Cancel(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// UpdateStatus conditionally overwrites the fulfilment status and
	// optional tracking number, guarded on the expected current status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus, trackingNumber *string) (bool, error)
}
