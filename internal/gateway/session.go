package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionItem is the redacted line-item view sent to the gateway: enough to
// render a checkout page, nothing more.
type SessionItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// SessionPayload is the full checkout-session document encoded into the
// redirect URL. It is signed whole, unlike the webhook triple.
type SessionPayload struct {
	OrderID       uuid.UUID       `json:"orderId"`
	UserID        uuid.UUID       `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Items         []SessionItem   `json:"items"`
	CustomerEmail string          `json:"customerEmail"`
	ReturnURL     string          `json:"returnUrl"`
	CancelURL     string          `json:"cancelUrl"`
}

// SessionBuilder turns a session payload into a signed gateway redirect URL.
type SessionBuilder struct {
	signer     *Signer
	gatewayURL string
	apiKey     string
}

// NewSessionBuilder creates a session builder pointing at the gateway's
// checkout endpoint.
func NewSessionBuilder(signer *Signer, gatewayURL, apiKey string) *SessionBuilder {
	return &SessionBuilder{
		signer:     signer,
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
	}
}

// CheckoutURL serializes and signs the payload, then encodes it base64url
// into the gateway checkout URL alongside the plaintext API-key identifier.
func (b *SessionBuilder) CheckoutURL(payload SessionPayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode session payload: %w", err)
	}

	signature := b.signer.SignSession(raw)
	encoded := base64.RawURLEncoding.EncodeToString(raw)

	checkout, err := url.Parse(b.gatewayURL)
	if err != nil {
		return "", fmt.Errorf("invalid gateway URL: %w", err)
	}

	query := checkout.Query()
	query.Set("payload", encoded)
	query.Set("signature", signature)
	query.Set("key", b.apiKey)
	checkout.RawQuery = query.Encode()

	return checkout.String(), nil
}
