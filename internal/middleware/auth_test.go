package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/auth"
)

func TestAuth(t *testing.T) {
	authenticator, err := auth.NewAPIKeyAuthenticator("k1:inventory-ui")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}

	tests := []struct {
		name        string
		method      string
		path        string
		apiKey      string
		wantStatus  int
		wantSubject string
		wantWWWAuth string
	}{
		{
			name:        "valid key",
			method:      http.MethodGet,
			path:        "/api/v1/materials",
			apiKey:      "k1",
			wantStatus:  http.StatusOK,
			wantSubject: "inventory-ui",
		},
		{
			name:        "missing key",
			method:      http.MethodGet,
			path:        "/api/v1/materials",
			wantStatus:  http.StatusUnauthorized,
			wantWWWAuth: `Basic realm="material-ledger", API-Key`,
		},
		{
			name:        "wrong key",
			method:      http.MethodDelete,
			path:        "/api/v1/materials/3",
			apiKey:      "nope",
			wantStatus:  http.StatusUnauthorized,
			wantWWWAuth: "API-Key",
		},
		{
			name:       "health is public",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "metrics is public",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight skips auth",
			method:     http.MethodOptions,
			path:       "/api/v1/materials",
			wantStatus: http.StatusOK,
		},
		{
			name:        "websocket requires auth",
			method:      http.MethodGet,
			path:        "/ws",
			wantStatus:  http.StatusUnauthorized,
			wantWWWAuth: `Basic realm="material-ledger", API-Key`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var subject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if info, ok := auth.FromContext(r.Context()); ok {
					subject = info.Subject
				}
				w.WriteHeader(http.StatusOK)
			})
			handler := Auth(authenticator, zap.NewNop())(next)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set(auth.APIKeyHeader, tt.apiKey)
			}
			rec := httptest.NewRecorder()

			// Act
			handler.ServeHTTP(rec, req)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if got := rec.Header().Get("WWW-Authenticate"); got != tt.wantWWWAuth {
				t.Errorf("WWW-Authenticate = %q, want %q", got, tt.wantWWWAuth)
			}
		})
	}
}

func TestIsPublicPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/health", want: true},
		{path: "/health/live", want: true},
		{path: "/metrics", want: true},
		{path: "/healthz", want: false},
		{path: "/api/v1/materials", want: false},
		{path: "/ws", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isPublicPath(tt.path); got != tt.want {
				t.Errorf("isPublicPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
