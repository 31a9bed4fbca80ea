// Package refreshrecords declares the server-side repository contract for
// refresh records: the jti and expiry of every refresh token a user may
// still redeem.
package refreshrecords

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// Repository stores refresh records. A record whose expires_at is not after
// the supplied now is treated as absent by every operation that takes now.
type Repository interface {
	// Add stores a new record for rec.UserID.
	Add(ctx context.Context, rec *models.RefreshRecord) error

	// Remove deletes the active record (userID, tokenID). It returns
	// common.ErrSessionNotActive when no active record matched.
	Remove(ctx context.Context, userID, tokenID string, now time.Time) error

	// Rotate atomically deletes the active record (userID, oldTokenID) and
	// inserts next in its place. Of two concurrent calls with the same
	// oldTokenID at most one succeeds; the other gets
	// common.ErrSessionNotActive.
	Rotate(ctx context.Context, userID, oldTokenID string, next *models.RefreshRecord, now time.Time) error

	// Clear deletes every record of userID and reports how many were removed.
	Clear(ctx context.Context, userID string) (int64, error)

	// PruneExpired deletes the records of userID that expired at or before now.
	PruneExpired(ctx context.Context, userID string, now time.Time) (int64, error)

	// ListActive returns the records of userID still active at now.
	ListActive(ctx context.Context, userID string, now time.Time) ([]*models.RefreshRecord, error)
}
