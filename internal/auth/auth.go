// Package auth identifies the owner of health data from an HS256 bearer token.
// Every health record is scoped by tenant and user, so a token must name both.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds signer verification parameters.
type Config struct {
	Secret string
	Issuer string
}

// Claims identifies the health data owner behind a request and the scopes they granted.
type Claims struct {
	Subject   string
	TenantID  string
	Scopes    map[string]struct{}
	ExpiresAt time.Time
}

var (
	// ErrMissingToken is returned when no bearer token was sent.
	ErrMissingToken = errors.New("auth: missing bearer token")
	// ErrInvalidToken covers tokens that fail signature, issuer or expiry checks.
	ErrInvalidToken = errors.New("auth: invalid bearer token")
	// ErrMissingTenant is returned for a valid token that names no tenant.
	ErrMissingTenant = fmt.Errorf("%w: token carries no tenant_id; health records are tenant scoped", ErrInvalidToken)
	// ErrMissingSubject is returned for a valid token that names no user.
	ErrMissingSubject = fmt.Errorf("%w: token carries no sub; health records belong to a user", ErrInvalidToken)
)

// ownerClaims is the token body issued to health clients.
type ownerClaims struct {
	jwt.RegisteredClaims
	TenantID string    `json:"tenant_id"`
	Scopes   scopeList `json:"scopes"`
}

// scopeList accepts scopes as a JSON array or a space separated string.
type scopeList []string

func (s *scopeList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("scopes must be a string or a list of strings: %w", err)
	}
	*s = strings.Fields(joined)
	return nil
}

// Parse validates token and returns the owner it names.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	var body ownerClaims
	if _, err := jwt.ParseWithClaims(token, &body, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	switch {
	case body.TenantID == "":
		return nil, ErrMissingTenant
	case body.Subject == "":
		return nil, ErrMissingSubject
	}

	scopes := make(map[string]struct{}, len(body.Scopes))
	for _, s := range body.Scopes {
		if s != "" {
			scopes[s] = struct{}{}
		}
	}
	return &Claims{
		Subject:   body.Subject,
		TenantID:  body.TenantID,
		Scopes:    scopes,
		ExpiresAt: body.ExpiresAt.Time,
	}, nil
}

// HasScope reports whether the token granted scope.
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	_, ok := c.Scopes[scope]
	return ok
}

// HasAnyScope reports whether the token granted at least one of scopes.
func (c *Claims) HasAnyScope(scopes ...string) bool {
	for _, s := range scopes {
		if c.HasScope(s) {
			return true
		}
	}
	return false
}
