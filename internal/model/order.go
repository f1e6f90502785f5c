package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus tracks how far an order has progressed through payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// OrderStatus tracks fulfilment progress.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// paymentTransitions is the set of legal payment status transitions.
// pending is the only state with outgoing edges besides the refund edges;
// completed/failed never revert to pending.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed, PaymentRefunded},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    {PaymentRefunded},
	PaymentRefunded:  {},
}

// orderTransitions is the set of legal fulfilment transitions. Forward-only:
// a shipped order cannot move back to processing, and shipped/delivered
// orders cannot be cancelled.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {},
	OrderCancelled:  {},
}

// CanTransitionTo reports whether moving from s to next is a legal payment
// status transition. Self-transitions are allowed so that replayed webhook
// deliveries are idempotent rather than errors.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is a legal
// fulfilment transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Cancellable reports whether an order in this fulfilment state may still be
// cancelled. Cancellation is keyed on fulfilment progress, not payment state.
func (s OrderStatus) Cancellable() bool {
	return s != OrderShipped && s != OrderDelivered
}

// ShippingAddress holds the postal fields captured at order creation.
type ShippingAddress struct {
	FullName   string `json:"fullName" db:"ship_full_name"`
	Line1      string `json:"line1" db:"ship_line1"`
	Line2      string `json:"line2,omitempty" db:"ship_line2"`
	City       string `json:"city" db:"ship_city"`
	State      string `json:"state,omitempty" db:"ship_state"`
	PostalCode string `json:"postalCode" db:"ship_postal_code"`
	Country    string `json:"country" db:"ship_country"`
}

// Order is the authoritative record of a purchase. Item names and prices are
// snapshots taken at creation time; they are never re-derived from the
// catalogue, so the record always reflects what the customer was charged.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	Items           []OrderItem     `json:"items" db:"-"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CustomerEmail   string          `json:"customerEmail" db:"customer_email"`
	PaymentMethod   string          `json:"paymentMethod" db:"payment_method"`
	TotalAmount     decimal.Decimal `json:"totalAmount" db:"total_amount"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	OrderStatus     OrderStatus     `json:"orderStatus" db:"order_status"`
	TransactionID   *string         `json:"transactionId,omitempty" db:"transaction_id"`
	TrackingNumber  *string         `json:"trackingNumber,omitempty" db:"tracking_number"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a priced line item inside an order.
type OrderItem struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Quantity  int             `json:"quantity" db:"quantity"`
}

// Subtotal returns unit price times quantity for this line.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderRequest is the payload for creating an order. Items is optional: when
// absent (or when the caller's cart is non-empty) the cart is the source of
// truth. TotalAmount, when supplied by a trusted caller, overrides the
// computed total; the caller is responsible for discount correctness.
type OrderRequest struct {
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	CustomerEmail   string             `json:"customerEmail"`
	Items           []OrderItemRequest `json:"items,omitempty"`
	TotalAmount     *decimal.Decimal   `json:"totalAmount,omitempty"`
}

// OrderItemRequest references a product either by its internal ID or by its
// public slug.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// StatusUpdateRequest is the administrative payload for overwriting an
// order's fulfilment status.
type StatusUpdateRequest struct {
	OrderStatus    OrderStatus `json:"orderStatus"`
	TrackingNumber *string     `json:"trackingNumber,omitempty"`
}
