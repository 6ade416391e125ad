// Package webhook receives GitHub push notifications and answers each one
// with a changelog summary per commit.
//
// # Security Model
//
// - Every request must carry X-Hub-Signature-256 = "sha256=" + hex HMAC-SHA256
// of the raw body under the shared secret
// - Signatures are compared with crypto/subtle (constant time)
// - Every verification failure gets the same 403 body; causes go to logs
// - A missing secret is a server fault (500), not a client one
// - Body size is capped (413) and bodies are never logged
//
// # Request Flow
//
//  1. POST arrives at the configured path
//  2. Body read up to max_body_size
//  3. Signature verified over the exact bytes read
//  4. Payload handed to the commit pipeline
//  5. 200 with {"status":"processed","summaries":[...]} or the not-a-push message
//  6. Summaries optionally posted to Slack
//
// # Error Responses
//
// - 400 Bad Request: invalid JSON or malformed push payload
// - 403 Forbidden: missing, malformed or wrong signature
// - 413 Payload Too Large: body exceeds max_body_size
// - 500 Internal Server Error: webhook secret not configured
package webhook
