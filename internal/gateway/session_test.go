package gateway

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionBuilder_CheckoutURL(t *testing.T) {
	signer := NewSigner("shared-secret")
	builder := NewSessionBuilder(signer, "https://pay.example.com/checkout", "pk_test_123")

	payload := SessionPayload{
		OrderID:  uuid.New(),
		UserID:   uuid.New(),
		Amount:   decimal.RequireFromString("200.00"),
		Currency: "USD",
		Items: []SessionItem{
			{ProductID: uuid.New(), Name: "Oud Royale", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
		},
		CustomerEmail: "shopper@example.com",
		ReturnURL:     "https://shop.example.com/payment/success",
		CancelURL:     "https://shop.example.com/payment/cancel",
	}

	checkoutURL, err := builder.CheckoutURL(payload)
	require.NoError(t, err)

	parsed, err := url.Parse(checkoutURL)
	require.NoError(t, err)
	assert.Equal(t, "pay.example.com", parsed.Host)
	assert.Equal(t, "/checkout", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "pk_test_123", query.Get("key"))
	require.NotEmpty(t, query.Get("signature"))

	// The payload must round-trip through base64url.
	raw, err := base64.RawURLEncoding.DecodeString(query.Get("payload"))
	require.NoError(t, err)

	var decoded SessionPayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload.OrderID, decoded.OrderID)
	assert.True(t, payload.Amount.Equal(decoded.Amount))
	assert.Len(t, decoded.Items, 1)
	assert.Equal(t, "Oud Royale", decoded.Items[0].Name)

	// The signature covers exactly the serialized payload.
	assert.Equal(t, signer.SignSession(raw), query.Get("signature"))
}

func TestSessionBuilder_CheckoutURL_InvalidGateway(t *testing.T) {
	builder := NewSessionBuilder(NewSigner("s"), "://not-a-url", "pk")

	_, err := builder.CheckoutURL(SessionPayload{})
	assert.Error(t, err)
}
