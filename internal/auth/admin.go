package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mockexam/internal/app/apiresp"

	"golang.org/x/crypto/bcrypt"
)

const (
	adminHeaderName = "X-Admin-Token"
	minTokenLength  = 16
)

var (
	ErrTokenTooShort = fmt.Errorf("admin token must be at least %d characters", minTokenLength)
	ErrInvalidHash   = errors.New("admin token hash is not a bcrypt hash")
)

type contextKey string

const adminContextKey contextKey = "admin"

// AdminGate protects operator routes with a single shared token whose bcrypt
// hash comes from configuration.
type AdminGate struct {
	hash []byte
}

// NewAdminGate accepts an empty hash, in which case every admin request is
// refused.
func NewAdminGate(hash string) (*AdminGate, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return &AdminGate{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return &AdminGate{hash: []byte(hash)}, nil
}

func (g *AdminGate) Enabled() bool {
	return len(g.hash) > 0
}

func (g *AdminGate) Verify(token string) bool {
	if !g.Enabled() || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(token)) == nil
}

func (g *AdminGate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			apiresp.WriteError(w, r, http.StatusForbidden, "admin access is disabled")
			return
		}
		token := readAdminToken(r)
		if token == "" {
			apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !g.Verify(token) {
			apiresp.WriteError(w, r, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context())))
	})
}

func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(adminContextKey).(bool)
	return v
}

// ContextWithAdmin marks the request as coming from an operator.
func ContextWithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminContextKey, true)
}

// HashToken produces the value for ADMIN_TOKEN_HASH.
func HashToken(token string, cost int) (string, error) {
	token = strings.TrimSpace(token)
	if len(token) < minTokenLength {
		return "", ErrTokenTooShort
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

func readAdminToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(adminHeaderName))
}
