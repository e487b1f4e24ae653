// Package auth provides optional authentication for the ledger API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthMethod represents the authentication method used.
type AuthMethod string

const (
	// AuthMethodNone indicates no authentication.
	AuthMethodNone AuthMethod = "none"
	// AuthMethodBasic indicates HTTP Basic authentication.
	AuthMethodBasic AuthMethod = "basic"
	// AuthMethodAPIKey indicates API key authentication.
	AuthMethodAPIKey AuthMethod = "apikey"
	// AuthMethodMulti indicates multi-method authentication.
	AuthMethodMulti AuthMethod = "multi"
)

// AuthInfo holds authenticated identity information.
type AuthInfo struct {
	Method  AuthMethod
	Subject string
}

// Authenticator validates a request and returns auth info.
type Authenticator interface {
	Authenticate(r *http.Request) (*AuthInfo, error)
	Method() AuthMethod
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownMode        = errors.New("unknown auth mode")
)

type contextKey string

const authInfoKey contextKey = "auth_info"

// FromContext retrieves AuthInfo from the context.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(*AuthInfo)
	return info, ok
}

// WithAuthInfo stores AuthInfo in the context.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}

// New builds the authenticator for the given mode. It returns nil for
// mode "none" (or empty), meaning requests are not authenticated.
func New(mode, basicUsers, apiKeys string) (Authenticator, error) {
	switch AuthMethod(mode) {
	case AuthMethodNone, "":
		return nil, nil
	case AuthMethodBasic:
		return NewBasicAuthenticator(basicUsers)
	case AuthMethodAPIKey:
		return NewAPIKeyAuthenticator(apiKeys)
	case AuthMethodMulti:
		var authenticators []Authenticator
		if strings.TrimSpace(apiKeys) != "" {
			ak, err := NewAPIKeyAuthenticator(apiKeys)
			if err != nil {
				return nil, err
			}
			authenticators = append(authenticators, ak)
		}
		if strings.TrimSpace(basicUsers) != "" {
			ba, err := NewBasicAuthenticator(basicUsers)
			if err != nil {
				return nil, err
			}
			authenticators = append(authenticators, ba)
		}
		if len(authenticators) == 0 {
			return nil, errors.New("multi auth mode requires at least one authenticator")
		}
		return NewMultiAuthenticator(authenticators...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

// parsePairs parses "a:b,c:d" into a map. Only the first colon of an entry
// separates the two halves, so values may contain colons.
func parsePairs(kind, raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%s: config must not be empty", kind)
	}

	pairs := make(map[string]string)
	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		left, right, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%s: invalid entry format", kind)
		}

		left = strings.TrimSpace(left)
		right = strings.TrimSpace(right)
		if left == "" || right == "" {
			return nil, fmt.Errorf("%s: entry halves must not be empty", kind)
		}

		pairs[left] = right
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s: no valid entries found", kind)
	}

	return pairs, nil
}
