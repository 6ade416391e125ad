package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/scribe-gw/internal/log"
)

func TestValidateAPIKey(t *testing.T) {
	assert.True(t, ValidateAPIKey("k3y", "k3y"))
	assert.False(t, ValidateAPIKey("k3y", "other"))
	assert.False(t, ValidateAPIKey("k3", "k3y"), "prefix must not match")
	assert.False(t, ValidateAPIKey("", "k3y"))
	assert.False(t, ValidateAPIKey("k3y", ""), "unset key rejects everything")
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "bearer", header: "Bearer test-key", want: "test-key"},
		{name: "surrounding space", header: "Bearer  test-key ", want: "test-key"},
		{name: "missing", header: "", wantErr: ErrMissingAuthorization},
		{name: "basic scheme", header: "Basic abc", wantErr: ErrNotBearer},
		{name: "blank key", header: "Bearer   ", wantErr: ErrEmptyAPIKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/jobs/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			key, err := ExtractAPIKey(req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := &Server{config: Config{APIKey: "k3y"}, logger: log.Discard()}
	h := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for header, want := range map[string]int{
		"":           http.StatusUnauthorized,
		"Bearer bad": http.StatusUnauthorized,
		"Bearer k3y": http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/jobs/x", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "header %q", header)
	}
}
