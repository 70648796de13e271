package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/noah-isme/backend-rent/internal/obs"
)

// Signature computes the checkout signature for an order/payment pair:
// hex(HMAC-SHA256(secret, orderId + "|" + paymentId)).
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier checks checkout signatures against the gateway key secret.
type Verifier struct {
	KeySecret string
}

// Verify reports whether the presented signature matches the order/payment
// pair. A mismatch is an expected outcome, not an error; the comparison is
// constant time.
func (v Verifier) Verify(orderID, paymentID, signature string) bool {
	expected := Signature(v.KeySecret, orderID, paymentID)
	ok := hmac.Equal([]byte(expected), []byte(signature))
	if obs.VerifyTotal != nil {
		if ok {
			obs.VerifyTotal.WithLabelValues("valid").Inc()
		} else {
			obs.VerifyTotal.WithLabelValues("invalid").Inc()
		}
	}
	return ok
}

// VerifyWebhook checks a webhook body signature:
// hex(HMAC-SHA256(secret, rawBody)) compared in constant time.
func VerifyWebhook(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
