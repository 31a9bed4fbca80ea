package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// UserService exposes the user directory to authenticated callers.
type UserService struct {
	store *CredentialStore
	log   logging.Logger
}

func NewUserService(store *CredentialStore, log logging.Logger) *UserService {
	return &UserService{store: store, log: log}
}

// Me returns the caller's own user record.
func (s *UserService) Me(ctx context.Context, caller auth.Identity) (*models.User, error) {
	id, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id.UserID)
}

// Sessions returns the caller's refresh records that are still active,
// oldest first.
func (s *UserService) Sessions(ctx context.Context, caller auth.Identity) ([]*models.RefreshRecord, error) {
	id, err := auth.RequireAuthenticated(caller)
	if err != nil {
		return nil, err
	}
	return s.store.ActiveSessions(ctx, id.UserID)
}

// List returns all users. Admin only.
func (s *UserService) List(ctx context.Context, caller auth.Identity) ([]*models.User, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

// SetRole changes a user's role. Admin only. The change reaches the user's
// access tokens at their next refresh.
func (s *UserService) SetRole(ctx context.Context, caller auth.Identity, userID, role string) (*models.User, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	user, err := s.store.SetRole(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user role changed", "user_id", user.ID, "role", r, "by", caller.UserID)
	return user, nil
}
