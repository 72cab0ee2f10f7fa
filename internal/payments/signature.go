package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayload computes the gateway callback signature: HMAC-SHA256 of
// "providerOrderId|paymentId" keyed with the channel secret, hex
// encoded. This is the wire contract all three supported providers use.
func SignPayload(providerOrderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(providerOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a callback signature in constant time.
func VerifySignature(providerOrderID, paymentID, secret, signature string) bool {
	expected := SignPayload(providerOrderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
