package auth

import (
	"context"

	"github.com/tobinmarsh/reelnight/internal/model"
)

type contextKey struct{}

// Identity is the authenticated caller attached to a request context by the
// session middleware. HouseholdID and Role are zero-valued when the session
// has no active household selected.
type Identity struct {
	AccountID   int64
	Email       string
	HouseholdID int64
	Role        string
	SessionID   int64
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// AccountID returns the authenticated account id, or zero when the request
// is anonymous.
func AccountID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return id.AccountID
}

func HouseholdID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return id.HouseholdID
}

func Email(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.Email
}

func IsAdmin(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return id.Role == model.RoleAdmin
}
