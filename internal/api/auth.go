package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingAuthorization = errors.New("missing Authorization header")
	ErrNotBearer            = errors.New("authorization must use the Bearer scheme")
	ErrEmptyAPIKey          = errors.New("missing API key")
)

// ValidateAPIKey compares keys in constant time. An unset configured key
// rejects everything, so an enabled API is never open.
func ValidateAPIKey(provided, configured string) bool {
	if configured == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) == 1
}

// ExtractAPIKey reads the key from "Authorization: Bearer <key>".
func ExtractAPIKey(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthorization
	}
	key, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrNotBearer
	}
	if key = strings.TrimSpace(key); key == "" {
		return "", ErrEmptyAPIKey
	}
	return key, nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := ExtractAPIKey(r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !ValidateAPIKey(key, s.config.APIKey) {
			s.logger.Warn("rejected API request", "path", r.URL.Path, "remote", r.RemoteAddr)
			s.writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
