package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_SignAndVerifyWebhook(t *testing.T) {
	signer := NewSigner("shared-secret")

	payload := WebhookPayload{
		OrderID:       "2b7a86bc-3587-44b5-b2e4-7f0cbbd1e1f6",
		Status:        "completed",
		TransactionID: "tx_1",
	}

	signature, err := signer.SignWebhook(payload)
	require.NoError(t, err)
	require.NotEmpty(t, signature)

	ok, err := signer.VerifyWebhook(payload, signature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSigner_VerifyWebhook_Deterministic(t *testing.T) {
	signer := NewSigner("shared-secret")
	payload := WebhookPayload{OrderID: "o1", Status: "completed", TransactionID: "tx_1"}

	first, err := signer.SignWebhook(payload)
	require.NoError(t, err)
	second, err := signer.SignWebhook(payload)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSigner_VerifyWebhook_TamperedFields(t *testing.T) {
	signer := NewSigner("shared-secret")

	original := WebhookPayload{OrderID: "o1", Status: "failed", TransactionID: ""}
	signature, err := signer.SignWebhook(original)
	require.NoError(t, err)

	tests := []struct {
		name     string
		tampered WebhookPayload
	}{
		{
			name:     "Tampered status",
			tampered: WebhookPayload{OrderID: "o1", Status: "completed", TransactionID: ""},
		},
		{
			name:     "Tampered transaction ID",
			tampered: WebhookPayload{OrderID: "o1", Status: "failed", TransactionID: "tx_fake"},
		},
		{
			name:     "Tampered order ID",
			tampered: WebhookPayload{OrderID: "o2", Status: "failed", TransactionID: ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := signer.VerifyWebhook(tt.tampered, signature)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSigner_VerifyWebhook_WrongSecret(t *testing.T) {
	payload := WebhookPayload{OrderID: "o1", Status: "completed", TransactionID: "tx_1"}

	signature, err := NewSigner("secret-a").SignWebhook(payload)
	require.NoError(t, err)

	ok, err := NewSigner("secret-b").VerifyWebhook(payload, signature)
	require.NoError(t, err)
	assert.False(t, ok)
}
