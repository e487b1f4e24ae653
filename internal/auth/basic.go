package auth

import (
	"net/http"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the user is unknown so that unknown
// and known users take the same time to reject.
var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("material-ledger"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// BasicAuthenticator authenticates requests using HTTP Basic authentication
// against bcrypt password hashes.
type BasicAuthenticator struct {
	users map[string]string // username -> bcrypt hash
}

// NewBasicAuthenticator parses "user1:hash1,user2:hash2".
func NewBasicAuthenticator(usersConfig string) (*BasicAuthenticator, error) {
	users, err := parsePairs("basic auth", usersConfig)
	if err != nil {
		return nil, err
	}
	return &BasicAuthenticator{users: users}, nil
}

// Authenticate verifies the Basic credentials of the request.
func (a *BasicAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthenticated
	}

	hash, exists := a.users[username]
	if !exists {
		compareDummy(password)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &AuthInfo{Method: AuthMethodBasic, Subject: username}, nil
}

// Method returns the authentication method type.
func (a *BasicAuthenticator) Method() AuthMethod {
	return AuthMethodBasic
}
