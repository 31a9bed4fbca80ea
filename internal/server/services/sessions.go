package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// AuthResult is what a successful register, login or refresh hands back.
// RefreshToken travels only in the refresh cookie.
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// EventRecorder receives one event per session operation outcome.
type EventRecorder interface {
	AuthEvent(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// SessionService implements register, login, refresh, logout and global
// logout. A refresh record moves from active to gone exactly once, by
// redemption, logout, expiry or global logout.
type SessionService struct {
	store  *CredentialStore
	issuer *auth.Issuer
	log    logging.Logger
	events EventRecorder
}

func NewSessionService(store *CredentialStore, issuer *auth.Issuer, log logging.Logger) *SessionService {
	return &SessionService{
		store:  store,
		issuer: issuer,
		log:    log,
		events: nopRecorder{},
	}
}

// WithRecorder attaches an EventRecorder, typically the metrics registry.
func (s *SessionService) WithRecorder(r EventRecorder) *SessionService {
	if r != nil {
		s.events = r
	}
	return s
}

// Register creates a member account and opens its first session.
func (s *SessionService) Register(ctx context.Context, login, password string) (res *AuthResult, err error) {
	defer func() { s.record("register", err) }()

	in := credentialsInput{Login: strings.TrimSpace(login), Password: password}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, st *CredentialStore) error {
		user, err := st.Create(ctx, in.Login, in.Password, models.RoleMember)
		if err != nil {
			return err
		}
		res, err = s.openSession(ctx, st, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "login", res.User.Login, "user_id", res.User.ID)
	return res, nil
}

// Login checks credentials, prunes the user's expired records and opens a
// new session. Unknown login and wrong password yield the same error.
func (s *SessionService) Login(ctx context.Context, login, password string) (res *AuthResult, err error) {
	defer func() { s.record("login", err) }()

	login = strings.TrimSpace(login)
	user, err := s.store.FindByLogin(ctx, login)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	if errors.Is(err, common.ErrorNotFound) {
		user = nil
	}

	if !s.store.VerifyPassword(user, password) {
		s.log.Info(ctx, "login failed", "login", login)
		return nil, common.ErrInvalidCredentials
	}

	err = s.store.InTx(ctx, func(ctx context.Context, st *CredentialStore) error {
		pruned, err := st.PruneExpired(ctx, user.ID)
		if err != nil {
			return err
		}
		if pruned > 0 {
			s.log.Debug(ctx, "expired sessions pruned", "user_id", user.ID, "count", pruned)
		}
		res, err = s.openSession(ctx, st, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "login", user.Login, "user_id", user.ID)
	return res, nil
}

// Refresh redeems a refresh token. The old record is replaced atomically by
// a new one and a fresh pair carrying the current role is returned.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (res *AuthResult, err error) {
	defer func() { s.record("refresh", err) }()

	claims, user, err := s.redeemable(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	next := s.issuer.NewSession(user.ID)
	if err := s.store.RotateRefreshRecord(ctx, user.ID, claims.ID, next); err != nil {
		if errors.Is(err, common.ErrSessionNotActive) {
			s.log.Warn(ctx, "refresh token reuse or expired session", "user_id", user.ID, "jti", claims.ID)
		}
		return nil, err
	}

	return s.sign(user, next)
}

// Logout removes the record named by the refresh token.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { s.record("logout", err) }()

	claims, user, err := s.redeemable(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.store.RemoveRefreshRecord(ctx, user.ID, claims.ID); err != nil {
		return err
	}

	s.log.Info(ctx, "user logged out", "user_id", user.ID)
	return nil
}

// LogoutEverywhere clears every refresh record of userID. Admin only.
// Access tokens already issued stay valid until they expire.
func (s *SessionService) LogoutEverywhere(ctx context.Context, caller auth.Identity, userID string) (err error) {
	defer func() { s.record("logout_all", err) }()

	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return err
	}
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	n, err := s.store.ClearAllRefreshRecords(ctx, user.ID)
	if err != nil {
		return err
	}

	s.log.Info(ctx, "sessions revoked", "user_id", user.ID, "by", caller.UserID, "count", n)
	return nil
}

// EnsureAdmin makes sure login exists with the admin role. A missing user
// is created with password; an existing one is promoted and, when
// resetPassword is set, gets password as its new password. Nothing happens
// unless both login and password are set.
func (s *SessionService) EnsureAdmin(ctx context.Context, login, password string, resetPassword bool) error {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil
	}

	user, err := s.store.FindByLogin(ctx, login)
	if errors.Is(err, common.ErrorNotFound) {
		if err := (credentialsInput{Login: login, Password: password}).Validate(); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		user, err = s.store.Create(ctx, login, password, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		s.log.Info(ctx, "admin user created", "login", login, "user_id", user.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if user.Role != models.RoleAdmin {
		if _, err := s.store.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		s.log.Info(ctx, "user promoted to admin", "login", login, "user_id", user.ID)
	}
	if resetPassword {
		if err := s.store.SetPassword(ctx, user.ID, password); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		s.log.Info(ctx, "admin password reset", "login", login, "user_id", user.ID)
	}
	return nil
}

// redeemable verifies the refresh token and loads its subject.
func (s *SessionService) redeemable(ctx context.Context, refreshToken string) (*auth.RefreshClaims, *models.User, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.store.FindByID(ctx, claims.Subject)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return claims, user, nil
}

// openSession persists a new record through st before signing the refresh
// token that references it.
func (s *SessionService) openSession(ctx context.Context, st *CredentialStore, user *models.User) (*AuthResult, error) {
	rec := s.issuer.NewSession(user.ID)
	if err := st.AddRefreshRecord(ctx, rec); err != nil {
		return nil, err
	}
	return s.sign(user, rec)
}

func (s *SessionService) sign(user *models.User, rec *models.RefreshRecord) (*AuthResult, error) {
	access, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	refresh, err := s.issuer.IssueRefreshToken(user, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *SessionService) record(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrDuplicateLogin),
		errors.Is(err, common.ErrValidation):
		result = "rejected"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrSessionNotActive),
		errors.Is(err, common.ErrUserNotFound):
		result = "invalid_session"
	case errors.Is(err, common.ErrUnauthenticated), errors.Is(err, common.ErrForbidden):
		result = "denied"
	default:
		result = "error"
	}
	s.events.AuthEvent(op, result)
}
