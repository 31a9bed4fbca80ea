package refreshrecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, rec *models.RefreshRecord) error {
	query := `
		INSERT INTO refresh_records (token_id, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, rec.TokenID, rec.UserID, rec.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, tokenID string, now time.Time) error {
	query := `
		DELETE FROM refresh_records
		WHERE user_id = $1 AND token_id = $2 AND expires_at > $3
	`
	res, err := r.db.ExecContext(ctx, query, userID, tokenID, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrSessionNotActive
	}
	return nil
}

// Rotate runs as a single statement. The DELETE takes a row lock on the old
// record, so a concurrent redemption of the same token deletes nothing and
// therefore inserts nothing.
func (r *PostgresRepository) Rotate(ctx context.Context, userID, oldTokenID string, next *models.RefreshRecord, now time.Time) error {
	query := `
		WITH redeemed AS (
			DELETE FROM refresh_records
			WHERE user_id = $1 AND token_id = $2 AND expires_at > $3
			RETURNING user_id
		)
		INSERT INTO refresh_records (token_id, user_id, expires_at)
		SELECT $4, user_id, $5 FROM redeemed
		RETURNING token_id
	`
	var inserted string
	err := r.db.QueryRowContext(ctx, query, userID, oldTokenID, now, next.TokenID, next.ExpiresAt).Scan(&inserted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrSessionNotActive
		}
		return fmt.Errorf("db error: %w", err)
	}
	next.UserID = userID
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) (int64, error) {
	query := `
		DELETE FROM refresh_records
		WHERE user_id = $1
	`
	return r.execCount(ctx, query, userID)
}

func (r *PostgresRepository) PruneExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_records
		WHERE user_id = $1 AND expires_at <= $2
	`
	return r.execCount(ctx, query, userID, now)
}

func (r *PostgresRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]*models.RefreshRecord, error) {
	query := `
		SELECT token_id, user_id, expires_at, created_at
		FROM refresh_records
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RefreshRecord
	for rows.Next() {
		rec := &models.RefreshRecord{}
		if err := rows.Scan(&rec.TokenID, &rec.UserID, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
