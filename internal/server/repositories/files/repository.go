// Package files stores attachment metadata. The content itself lives in
// object storage under File.StorageKey.
package files

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.File) (*models.File, error)
	// Get returns the file only if it is attached to taskID.
	Get(ctx context.Context, taskID, fileID string) (*models.File, error)
	ListByTask(ctx context.Context, taskID string) ([]*models.File, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.File, error)
	// Delete removes the row and returns it so the caller can drop the object.
	Delete(ctx context.Context, taskID, fileID string) (*models.File, error)
}
