package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattjoyce/scribe-gw/internal/log"
)

const signaturePrefix = "sha256="

// ErrVerification is wrapped by every verification failure.
var ErrVerification = errors.New("webhook verification failed")

var (
	ErrMissingSignature     = fmt.Errorf("%w: missing signature", ErrVerification)
	ErrConfiguration        = fmt.Errorf("%w: webhook secret not configured", ErrVerification)
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported signature algorithm", ErrVerification)
	ErrSignatureMismatch    = fmt.Errorf("%w: signature mismatch", ErrVerification)
)

// Verifier checks GitHub-style X-Hub-Signature-256 headers. The secret is
// fixed at construction and never logged.
type Verifier struct {
	secret []byte
	logger *slog.Logger
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), logger: log.WithComponent("webhook.verify")}
}

// Configured reports whether a secret is set.
func (v *Verifier) Configured() bool {
	return len(v.secret) > 0
}

// Verify checks header against the HMAC-SHA256 of body. body must be the
// exact bytes received.
func (v *Verifier) Verify(body []byte, header string) error {
	if header == "" {
		return ErrMissingSignature
	}
	if !v.Configured() {
		return ErrConfiguration
	}

	algo, digest, ok := strings.Cut(header, "=")
	if !ok || digest == "" || algo != "sha256" {
		return ErrUnsupportedAlgorithm
	}

	expected := Sign(v.secret, body)
	v.logger.Debug("comparing signatures", "expected", expected, "received", header)

	if subtle.ConstantTimeCompare([]byte(expected), []byte(header)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign returns the "sha256=<hex>" header value for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
