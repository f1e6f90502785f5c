package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WebhookRequest is the payload the external gateway posts back after a
// payment attempt. Signature covers {orderId, status, transactionId}.
type WebhookRequest struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
	Signature     string `json:"signature"`
}

// CheckoutSession is returned to the client so it can redirect the shopper
// to the external gateway.
type CheckoutSession struct {
	CheckoutURL string          `json:"checkoutUrl"`
	OrderID     uuid.UUID       `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentStatusView is the read-only payment projection of an order.
type PaymentStatusView struct {
	OrderID       uuid.UUID     `json:"orderId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	TransactionID *string       `json:"transactionId,omitempty"`
}
