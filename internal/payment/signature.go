package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

func NewHeaderGenerator(clientID, secretKey, requestPath string) *HeaderGenerator {
	return &HeaderGenerator{
		ClientID:    clientID,
		SecretKey:   secretKey,
		RequestID:   uuid.New().String(),
		RequestPath: requestPath,
	}
}

// HeaderGenerator builds the signed request headers the checkout provider
// requires on every API call.
type HeaderGenerator struct {
	ClientID    string
	SecretKey   string
	RequestID   string
	RequestPath string
}

func (g *HeaderGenerator) GenerateDigest(jsonBody string) string {
	hash := sha256.Sum256([]byte(jsonBody))
	return base64.StdEncoding.EncodeToString(hash[:])
}

func (g *HeaderGenerator) GenerateSignature(digest, requestTimestamp string) string {
	componentSignature := "Client-Id:" + g.ClientID + "\n" +
		"Request-Id:" + g.RequestID + "\n" +
		"Request-Timestamp:" + requestTimestamp + "\n" +
		"Request-Target:" + g.RequestPath + "\n" +
		"Digest:" + digest

	mac := hmac.New(sha256.New, []byte(g.SecretKey))
	mac.Write([]byte(componentSignature))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return "HMACSHA256=" + signature
}

func (g *HeaderGenerator) GetHeaders(jsonBody string) map[string]string {
	digest := g.GenerateDigest(jsonBody)
	requestTimestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	signature := g.GenerateSignature(digest, requestTimestamp)

	return map[string]string{
		"Client-Id":         g.ClientID,
		"Request-Id":        g.RequestID,
		"Request-Timestamp": requestTimestamp,
		"Signature":         signature,
		"Content-Type":      "application/json",
		"Digest":            digest,
	}
}

// CallbackSignature computes the signature expected on an inbound provider
// notification body.
func CallbackSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "HMACSHA256=" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyCallbackSignature checks a webhook body against the Signature
// header in constant time.
func VerifyCallbackSignature(secret string, body []byte, header string) bool {
	expected := CallbackSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(header))
}
