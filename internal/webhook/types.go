package webhook

import (
	"context"

	"github.com/mattjoyce/scribe-gw/internal/commits"
)

// Pipeline summarizes a verified payload.
type Pipeline interface {
	Run(ctx context.Context, payload []byte) (commits.Outcome, error)
}

// Notifier receives processed outcomes. Failures never affect the response.
type Notifier interface {
	NotifyChangelog(ctx context.Context, out commits.Outcome) error
}

// Publisher receives webhook lifecycle events.
type Publisher interface {
	Publish(eventType string, data any)
}

// Config holds webhook server configuration.
type Config struct {
	Listen          string
	Path            string
	Secret          string
	SignatureHeader string
	MaxBodySize     int64
}

// ProcessedResponse is returned for a summarized push.
type ProcessedResponse struct {
	Status    string            `json:"status"`
	Summaries []commits.Summary `json:"summaries"`
}

// MessageResponse is returned for payloads that are not pushes.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	DefaultListen          = "127.0.0.1:8081"
	DefaultPath            = "/webhook"
	DefaultSignatureHeader = "X-Hub-Signature-256"
	DefaultMaxBodySize     = 1048576 // 1 MB

	NotPushMessage = "Not a push event, skipping"
)
