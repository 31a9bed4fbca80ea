// Package tasks stores the tasks of a project.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// Patch lists the fields an update may change; nil means unchanged.
type Patch struct {
	Title       *string
	Description *string
	Assignee    *string
	Status      *models.TaskStatus
}

type Repository interface {
	Create(ctx context.Context, t *models.Task) (*models.Task, error)
	// Get returns the task only if it belongs to projectID.
	Get(ctx context.Context, projectID, taskID string) (*models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Task, error)
	Update(ctx context.Context, projectID, taskID string, patch Patch) (*models.Task, error)
	Delete(ctx context.Context, projectID, taskID string) error
}
