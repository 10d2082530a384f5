package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// unknownIdentifier substitutes a missing secondary identifier so that
// requests without one still share a stable key per source address.
const unknownIdentifier = "unknown"

// KeyResolver derives a rate limit key from a classified request.
//
// Identifier selection per endpoint type:
//   - public_unauthenticated: client IP
//   - protected_unauthenticated: client IP + SHA-256 of the submitted email
//   - public_authenticated, protected_authenticated: user id, falling back
//     to token id, falling back to client IP
//   - anything else: client IP
//
// Identity-based keys keep shared-IP users (NAT, offices) from throttling
// each other; the IP+email combination binds login-style attempts to both
// the source address and the targeted account, which blunts IP rotation
// and credential stuffing without ever storing the plaintext email.
type KeyResolver struct{}

// NewKeyResolver creates a KeyResolver.
func NewKeyResolver() KeyResolver {
	return KeyResolver{}
}

// Resolve builds the key rate_limit:{type}:{identifier} for the request.
func (KeyResolver) Resolve(rc RequestContext, classification Classification) (Key, error) {
	endpointType := classification.Type()

	var identifier string
	switch {
	case strings.HasSuffix(string(endpointType), "_authenticated"):
		identifier = principalIdentifier(rc)
	case endpointType == EndpointProtectedUnauthenticated:
		identifier = ipEmailIdentifier(rc)
	default:
		identifier = ipIdentifier(rc)
	}

	return NewKey(fmt.Sprintf("%s%s:%s", KeyPrefix, endpointType, identifier))
}

func ipIdentifier(rc RequestContext) string {
	return "ip_" + rc.ClientIP
}

func ipEmailIdentifier(rc RequestContext) string {
	email := rc.Email
	if email == "" {
		email = unknownIdentifier
	}
	sum := sha256.Sum256([]byte(email))
	return fmt.Sprintf("ip_%s_email_%s", rc.ClientIP, hex.EncodeToString(sum[:]))
}

func principalIdentifier(rc RequestContext) string {
	if p := rc.Principal; p != nil {
		if p.UserID != 0 {
			return fmt.Sprintf("user_%d", p.UserID)
		}
		if p.TokenID != "" {
			return "token_" + p.TokenID
		}
	}
	return ipIdentifier(rc)
}
