package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader is the HTTP header name for API key authentication.
const APIKeyHeader = "X-API-Key"

// APIKeyQueryParam carries the key for WebSocket upgrades, where browsers
// cannot set custom headers.
const APIKeyQueryParam = "api_key"

// APIKeyAuthenticator authenticates requests carrying a known key in the
// X-API-Key header.
type APIKeyAuthenticator struct {
	keys map[string]string // key value -> client name
}

// NewAPIKeyAuthenticator parses "key1:name1,key2:name2".
func NewAPIKeyAuthenticator(keysConfig string) (*APIKeyAuthenticator, error) {
	keys, err := parsePairs("apikey auth", keysConfig)
	if err != nil {
		return nil, err
	}
	return &APIKeyAuthenticator{keys: keys}, nil
}

// Authenticate compares the header against every configured key in
// constant time.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	apiKey := r.Header.Get(APIKeyHeader)
	if apiKey == "" && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		apiKey = r.URL.Query().Get(APIKeyQueryParam)
	}
	if apiKey == "" {
		return nil, ErrUnauthenticated
	}

	var subject string
	for key, name := range a.keys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			subject = name
		}
	}

	if subject == "" {
		return nil, ErrInvalidAPIKey
	}

	return &AuthInfo{Method: AuthMethodAPIKey, Subject: subject}, nil
}

// Method returns the authentication method type.
func (a *APIKeyAuthenticator) Method() AuthMethod {
	return AuthMethodAPIKey
}
