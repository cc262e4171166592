package gateway

import (
	"crypto/subtle"

	"deckbridge/internal/domain"
)

// Authenticator validates incoming gateway connections.
type Authenticator interface {
	Authenticate(token string) error
}

// StaticTokenAuth authenticates clients against a single static token
// using constant-time comparison to prevent timing attacks. The bridge
// has exactly one operator, so one token is the whole surface.
type StaticTokenAuth struct {
	token []byte
}

// NewStaticTokenAuth builds an authenticator for the given token.
func NewStaticTokenAuth(token string) *StaticTokenAuth {
	return &StaticTokenAuth{token: []byte(token)}
}

// Authenticate checks the presented token. An empty configured token
// rejects every connection.
func (s *StaticTokenAuth) Authenticate(token string) error {
	if len(s.token) == 0 {
		return domain.ErrGatewayAuthFailed
	}
	if subtle.ConstantTimeCompare([]byte(token), s.token) != 1 {
		return domain.ErrGatewayAuthFailed
	}
	return nil
}
