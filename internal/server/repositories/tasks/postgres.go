package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const taskColumns = `id, project_id, title, description, status, assignee, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	t := &models.Task{}
	var status string
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.Assignee, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = models.TaskStatus(status)
	t.Attachments = []models.File{}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (project_id, title, description, status, assignee)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + taskColumns
	created, err := scanTask(r.db.QueryRowContext(ctx, query, t.ProjectID, t.Title, t.Description, string(t.Status), t.Assignee))
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) Get(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND project_id = $2`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, taskID, projectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, projectID, taskID string, patch Patch) (*models.Task, error) {
	var status sql.NullString
	if patch.Status != nil {
		status = sql.NullString{String: string(*patch.Status), Valid: true}
	}
	query := `
		UPDATE tasks SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			assignee = COALESCE($5, assignee),
			status = COALESCE($6, status),
			updated_at = now()
		WHERE id = $1 AND project_id = $2
		RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRowContext(ctx, query, taskID, projectID,
		nullString(patch.Title), nullString(patch.Description), nullString(patch.Assignee), status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, projectID, taskID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND project_id = $2`, taskID, projectID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
