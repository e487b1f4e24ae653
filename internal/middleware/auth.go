package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/auth"
)

// publicPaths never require authentication.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Auth returns a middleware that authenticates every request except public
// paths (and their sub-paths) and CORS preflight requests.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			info, err := authenticator.Authenticate(r)
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				setWWWAuthenticate(w, err)
				writeJSONError(w, http.StatusUnauthorized, err.Error())
				return
			}

			logger.Debug("authentication successful",
				zap.String("subject", info.Subject),
				zap.String("method", string(info.Method)),
			)

			next.ServeHTTP(w, r.WithContext(auth.WithAuthInfo(r.Context(), info)))
		})
	}
}

// isPublicPath matches /health and /health/live but not /healthz.
func isPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for p := range publicPaths {
		if strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func setWWWAuthenticate(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Basic realm="material-ledger", API-Key`)
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Basic realm="material-ledger"`)
	case errors.Is(err, auth.ErrInvalidAPIKey):
		w.Header().Set("WWW-Authenticate", "API-Key")
	}
}
