package auth

import (
	"strings"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// AccessVerifier is the part of Issuer the guard depends on.
type AccessVerifier interface {
	VerifyAccessToken(tokenString string) (*AccessClaims, error)
}

// Guard turns bearer headers into identities.
type Guard struct {
	verifier AccessVerifier
}

func NewGuard(v AccessVerifier) *Guard {
	return &Guard{verifier: v}
}

// ResolveIdentity never fails: a missing, malformed, forged or expired
// token yields Anonymous. The role comes from the token, not the store.
func (g *Guard) ResolveIdentity(authorizationHeader string) Identity {
	token, ok := BearerToken(authorizationHeader)
	if !ok {
		return Anonymous
	}
	claims, err := g.verifier.VerifyAccessToken(token)
	if err != nil {
		return Anonymous
	}
	return Identity{UserID: claims.Subject, Role: claims.Role}
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// RequireAuthenticated fails with common.ErrUnauthenticated for Anonymous.
func RequireAuthenticated(id Identity) (Identity, error) {
	if id.IsAnonymous() {
		return Anonymous, common.ErrUnauthenticated
	}
	return id, nil
}

// RequireRole admits authenticated callers whose role is one of roles.
func RequireRole(id Identity, roles ...models.Role) (Identity, error) {
	if _, err := RequireAuthenticated(id); err != nil {
		return Anonymous, err
	}
	for _, r := range roles {
		if id.Role == r {
			return id, nil
		}
	}
	return Anonymous, common.ErrForbidden
}

// RequireProjectAccess admits admins and members of project. The decision
// uses only the identity and the member list.
func RequireProjectAccess(id Identity, project *models.Project) error {
	if _, err := RequireAuthenticated(id); err != nil {
		return err
	}
	if id.IsAdmin() {
		return nil
	}
	if project != nil && project.HasMember(id.UserID) {
		return nil
	}
	return common.ErrForbidden
}
