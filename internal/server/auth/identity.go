package auth

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// Identity is the caller as resolved from a bearer token. The zero value is
// the anonymous caller.
type Identity struct {
	UserID string
	Role   models.Role
}

// Anonymous is the identity of a caller without a valid access token.
var Anonymous = Identity{}

func (id Identity) IsAnonymous() bool {
	return id.UserID == ""
}

func (id Identity) IsAdmin() bool {
	return !id.IsAnonymous() && id.Role == models.RoleAdmin
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity, or
// Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return Anonymous
	}
	return id
}
