package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/custodia-labs/glowbox/internal/core/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Dropbox-Signature"

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against body in constant time.
// Every failure wraps domain.ErrInvalidSignature.
func VerifySignature(secret, body []byte, signature string) error {
	if len(secret) == 0 {
		return fmt.Errorf("%w: app secret not configured", domain.ErrInvalidSignature)
	}
	signature = strings.ToLower(strings.TrimSpace(signature))
	if signature == "" {
		return fmt.Errorf("%w: missing %s header", domain.ErrInvalidSignature, SignatureHeader)
	}
	if !hmac.Equal([]byte(Sign(secret, body)), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}
