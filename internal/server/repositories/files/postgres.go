package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, project_id, task_id, original_name, mime_type, size, storage_key,
	COALESCE(uploaded_by::text, ''), uploaded_at`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	err := row.Scan(&f.ID, &f.ProjectID, &f.TaskID, &f.OriginalName, &f.MimeType, &f.Size,
		&f.StorageKey, &f.UploadedBy, &f.UploadedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create inserts the metadata row. An empty UploadedBy is stored as NULL.
func (r *PostgresRepository) Create(ctx context.Context, f *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (project_id, task_id, original_name, mime_type, size, storage_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid)
		RETURNING ` + fileColumns
	created, err := scanFile(r.db.QueryRowContext(ctx, query,
		f.ProjectID, f.TaskID, f.OriginalName, f.MimeType, f.Size, f.StorageKey, f.UploadedBy))
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Get(ctx context.Context, taskID, fileID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND task_id = $2`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByTask(ctx context.Context, taskID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE task_id = $1 ORDER BY uploaded_at`
	return r.list(ctx, query, taskID)
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = $1 ORDER BY uploaded_at`
	return r.list(ctx, query, projectID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := []*models.File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, taskID, fileID string) (*models.File, error) {
	query := `DELETE FROM files WHERE id = $1 AND task_id = $2 RETURNING ` + fileColumns
	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}
