package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/refreshrecords"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/users"
)

// dummyPassword is hashed once at construction; unknown logins are compared
// against it so that both login failure paths cost one bcrypt compare.
const dummyPassword = "taskhub-dummy-password"

// CredentialStore owns users and their refresh records. A store returned by
// NewCredentialStore is bound to the connection pool; the one passed to an
// InTx callback is bound to that transaction.
type CredentialStore struct {
	pool        *sql.DB
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      auth.Hasher
	dummyHash   string
	now         func() time.Time
}

// NewCredentialStore constructs a CredentialStore over db.
func NewCredentialStore(db *sql.DB, m repomanager.RepositoryManager, hasher auth.Hasher) (*CredentialStore, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	return &CredentialStore{
		pool:        db,
		db:          db,
		repomanager: m,
		hasher:      hasher,
		dummyHash:   dummy,
		now:         time.Now,
	}, nil
}

// WithClock replaces the time source used for record expiry checks.
func (s *CredentialStore) WithClock(now func() time.Time) *CredentialStore {
	s.now = now
	return s
}

func (s *CredentialStore) users() users.Repository {
	return s.repomanager.Users(s.db)
}

func (s *CredentialStore) records() refreshrecords.Repository {
	return s.repomanager.RefreshRecords(s.db)
}

// InTx runs fn with a store bound to a single transaction. Calls on an
// already transactional store run inline.
func (s *CredentialStore) InTx(ctx context.Context, fn func(ctx context.Context, st *CredentialStore) error) error {
	if s.pool == nil {
		return fn(ctx, s)
	}
	return dbx.WithTx(ctx, s.pool, nil, func(ctx context.Context, tx dbx.DBTX) error {
		st := *s
		st.pool = nil
		st.db = tx
		return fn(ctx, &st)
	})
}

// FindByLogin returns common.ErrorNotFound for unknown logins.
func (s *CredentialStore) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.users().GetByLogin(ctx, login)
}

// FindByID returns common.ErrorNotFound for unknown ids.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.users().GetByID(ctx, id)
}

// Create hashes plaintext and persists a new user. It fails with
// common.ErrDuplicateLogin when login is taken.
func (s *CredentialStore) Create(ctx context.Context, login, plaintext string, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role %q", common.ErrValidation, role)
	}
	hash, err := s.hash(plaintext)
	if err != nil {
		return nil, err
	}
	return s.users().Create(ctx, &models.User{Login: login, PasswordHash: hash, Role: role})
}

// VerifyPassword reports whether plaintext matches the user's hash. A nil
// user is checked against the dummy hash and never matches.
func (s *CredentialStore) VerifyPassword(user *models.User, plaintext string) bool {
	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	ok := s.hasher.Compare(hash, plaintext)
	return ok && user != nil
}

func (s *CredentialStore) SetRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	return s.users().UpdateRole(ctx, userID, role)
}

func (s *CredentialStore) SetPassword(ctx context.Context, userID, plaintext string) error {
	hash, err := s.hash(plaintext)
	if err != nil {
		return err
	}
	return s.users().UpdatePassword(ctx, userID, hash)
}

// List returns every user ordered by login.
func (s *CredentialStore) List(ctx context.Context) ([]*models.User, error) {
	return s.users().List(ctx)
}

func (s *CredentialStore) AddRefreshRecord(ctx context.Context, rec *models.RefreshRecord) error {
	return s.records().Add(ctx, rec)
}

// RemoveRefreshRecord fails with common.ErrSessionNotActive when no active
// record matches.
func (s *CredentialStore) RemoveRefreshRecord(ctx context.Context, userID, tokenID string) error {
	return s.records().Remove(ctx, userID, tokenID, s.now())
}

// RotateRefreshRecord replaces an active record with next in one statement.
// Of two concurrent rotations of the same record at most one succeeds; the
// other gets common.ErrSessionNotActive.
func (s *CredentialStore) RotateRefreshRecord(ctx context.Context, userID, oldTokenID string, next *models.RefreshRecord) error {
	return s.records().Rotate(ctx, userID, oldTokenID, next, s.now())
}

func (s *CredentialStore) ClearAllRefreshRecords(ctx context.Context, userID string) (int64, error) {
	return s.records().Clear(ctx, userID)
}

func (s *CredentialStore) PruneExpired(ctx context.Context, userID string) (int64, error) {
	return s.records().PruneExpired(ctx, userID, s.now())
}

func (s *CredentialStore) ActiveSessions(ctx context.Context, userID string) ([]*models.RefreshRecord, error) {
	return s.records().ListActive(ctx, userID, s.now())
}

func (s *CredentialStore) hash(plaintext string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return hash, nil
}
