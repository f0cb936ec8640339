package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the validity window applied to issued tokens when no other
// duration is configured.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken indicates a malformed token or a bad signature.
var ErrInvalidToken = errors.New("invalid token")

// Manager issues and verifies HS256 session tokens. The signing key is
// derived once at construction and never recomputed per call.
type Manager struct {
	key []byte
	ttl time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{key: []byte(secret), ttl: ttl}
}

// TTL reports the validity window applied to issued tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for subject with issued-at now and expiry now+TTL.
// Extra claims, if any, are folded in alongside the registered set.
func (m *Manager) Issue(subject string, extra map[string]any) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(m.ttl)),
	}
	for k, v := range extra {
		claims[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// parse checks structure and signature only; expiry is the caller's concern
// so that subject extraction and expiry stay independently observable.
func (m *Manager) parse(tokenStr string) (*jwt.RegisteredClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ExtractSubject verifies the signature and returns the subject claim.
func (m *Manager) ExtractSubject(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsExpired reports whether the token's expiry has passed. Tokens that fail
// signature or structural checks count as expired.
func (m *Manager) IsExpired(tokenStr string) bool {
	claims, err := m.parse(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.Time.After(time.Now())
}

// Validate reports whether the token belongs to expectedSubject and is still
// inside its validity window. Signature and structure failures surface as
// errors so callers can tell a bad token from a valid-but-mismatched one.
func (m *Manager) Validate(tokenStr, expectedSubject string) (bool, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return false, err
	}
	if claims.Subject != expectedSubject {
		return false, nil
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(time.Now()) {
		return false, nil
	}
	return true, nil
}
