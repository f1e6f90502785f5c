package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// WebhookPayload is the canonical field set the gateway and this service
// both sign. The signature covers exactly this triple, serialized as JSON in
// this field order; the session payload is signed separately and the two
// schemes are not interchangeable.
type WebhookPayload struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

// Signer computes and verifies HMAC-SHA256 signatures with the server-held
// secret shared out-of-band with the gateway operator.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer keyed with the shared webhook secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// sign returns the hex-encoded HMAC-SHA256 of the message.
func (s *Signer) sign(message []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignWebhook computes the signature over the canonical webhook triple.
func (s *Signer) SignWebhook(payload WebhookPayload) (string, error) {
	message, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	return s.sign(message), nil
}

// VerifyWebhook recomputes the expected signature over the canonical triple
// and compares it to the supplied one in constant time.
func (s *Signer) VerifyWebhook(payload WebhookPayload, signature string) (bool, error) {
	expected, err := s.SignWebhook(payload)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// SignSession computes the signature over an already-serialized checkout
// session payload.
func (s *Signer) SignSession(payload []byte) string {
	return s.sign(payload)
}
