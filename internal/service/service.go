package service

import (
	"context"

	"scentrale/internal/model"

	"github.com/google/uuid"
)

// OrderService defines operations on the order ledger.
type OrderService interface {
	// Create converts the caller's cart (or an explicit item list) into an
	// immutable order, reserving stock atomically.
	Create(ctx context.Context, requester model.Identity, req *model.OrderRequest) (*model.Order, error)

	// List retrieves the caller's orders, newest first.
	List(ctx context.Context, requester model.Identity) ([]model.Order, error)

	// GetByID retrieves a single order, restricted to its owner or an admin.
	GetByID(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Order, error)

	// Cancel cancels an order and restores the reserved stock. Forbidden
	// once the order has shipped or been delivered.
	Cancel(ctx context.Context, id uuid.UUID, requester model.Identity) (*model.Order, error)

	// UpdateStatus overwrites the fulfilment status (admin only). Consults
	// the status transition table; no stock or payment side effects.
	UpdateStatus(ctx context.Context, id uuid.UUID, req *model.StatusUpdateRequest) (*model.Order, error)
}

// PaymentService bridges orders to the external payment gateway.
type PaymentService interface {
	// CreateCheckoutSession builds a signed redirect URL for an unpaid
	// order owned by the requester. No order mutation occurs.
	CreateCheckoutSession(ctx context.Context, orderID uuid.UUID, requester model.Identity) (*model.CheckoutSession, error)

	// HandleWebhook verifies and applies an asynchronous gateway
	// notification. Idempotent against redelivery.
	HandleWebhook(ctx context.Context, req *model.WebhookRequest) error

	// GetStatus returns the payment projection of an order owned by the
	// requester.
	GetStatus(ctx context.Context, orderID uuid.UUID, requester model.Identity) (*model.PaymentStatusView, error)
}
