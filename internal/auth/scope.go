// Package auth defines the authorization scope threaded through every
// server-side operation. The sync engine never consults ambient session
// state: whoever calls it passes an explicit, pre-validated scope.
package auth

import (
	"context"
	"errors"

	"github.com/agrolabs/pasture/internal/domain"
)

// Scope is a pre-validated (user, farm, role) triple. The API middleware
// builds it from the bearer token and the membership table; everything
// downstream trusts it.
type Scope struct {
	UserID string
	FarmID string
	Role   domain.Role
}

// CanSync reports whether the scope may push and pull farm data.
func (s Scope) CanSync() bool {
	return s.Role.AtLeast(domain.RoleStaff)
}

type scopeContextKey struct{}

// ErrNoScope indicates no scope was attached to the context.
var ErrNoScope = errors.New("no authorization scope in context")

// WithScope returns a context carrying the scope.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFromContext extracts the scope placed by the auth middleware.
func ScopeFromContext(ctx context.Context) (Scope, error) {
	s, ok := ctx.Value(scopeContextKey{}).(Scope)
	if !ok || s.UserID == "" {
		return Scope{}, ErrNoScope
	}
	return s, nil
}
