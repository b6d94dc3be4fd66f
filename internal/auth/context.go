package auth

import (
	"context"

	"society/internal/core"
)

// Identity is the authenticated caller.
type Identity struct {
	Subject  string    `json:"sub"`
	MemberID string    `json:"memberId"`
	FlatNo   string    `json:"flatNo"`
	Role     core.Role `json:"role"`
}

// IdentityFromUser builds the identity of a known society member, with role
// overriding the user's own when non-empty.
func IdentityFromUser(u core.User, role core.Role) Identity {
	if role == "" {
		role = u.Role
	}
	return Identity{Subject: u.ID, MemberID: u.ID, FlatNo: u.FlatNo, Role: role}
}

type contextKey struct{}

// WithIdentity stores the caller identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the caller identity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
