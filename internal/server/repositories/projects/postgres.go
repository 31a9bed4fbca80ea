package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// PostgresRepository implements project storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// selectProject yields one row per project with members flattened into a
// comma separated list and the number of tasks.
const selectProject = `
	SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		COALESCE((SELECT string_agg(m.user_id::text, ',' ORDER BY m.added_at)
			FROM project_members m WHERE m.project_id = p.id), '') AS members,
		(SELECT count(*) FROM tasks t WHERE t.project_id = p.id) AS tasks_count
	FROM projects p
`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	p := &models.Project{}
	var members string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &members, &p.TasksCount); err != nil {
		return nil, err
	}
	p.Members = splitMembers(members)
	return p, nil
}

func splitMembers(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := `
		INSERT INTO projects (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, p.Name, p.Description).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(p.Members) > 0 {
		if err := r.SetMembers(ctx, p.ID, p.Members); err != nil {
			return nil, err
		}
	}
	if p.Members == nil {
		p.Members = []string{}
	}
	return p, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, selectProject+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, selectProject+` ORDER BY p.created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch Patch) (*models.Project, error) {
	query := `
		UPDATE projects SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, nullString(patch.Name), nullString(patch.Description))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := oneRow(res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRow(res)
}

func (r *PostgresRepository) AddMember(ctx context.Context, projectID, userID string) error {
	query := `
		INSERT INTO project_members (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRow(res)
}

// SetMembers should run inside a transaction; it deletes then re-inserts.
func (r *PostgresRepository) SetMembers(ctx context.Context, projectID string, userIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, userID := range userIDs {
		if err := r.AddMember(ctx, projectID, userID); err != nil {
			return err
		}
	}
	return nil
}

func oneRow(res sql.Result) error {
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
