// Package projects stores projects and their membership lists.
package projects

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

// Patch lists the fields an update may change; nil means unchanged.
type Patch struct {
	Name        *string
	Description *string
}

type Repository interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// List returns every project with its members and task count, oldest first.
	List(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, id string, patch Patch) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	// AddMember is idempotent. An unknown user or project yields common.ErrorNotFound.
	AddMember(ctx context.Context, projectID, userID string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	// SetMembers replaces the member list.
	SetMembers(ctx context.Context, projectID string, userIDs []string) error
}
