// Package httpapi is the JSON-over-HTTP transport of the server, routed with
// chi. Every handler resolves the caller from the bearer header and leaves
// authorization decisions to the services.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
)

type Sessions interface {
	Register(ctx context.Context, login, password string) (*services.AuthResult, error)
	Login(ctx context.Context, login, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutEverywhere(ctx context.Context, caller auth.Identity, userID string) error
}

type Users interface {
	Me(ctx context.Context, caller auth.Identity) (*models.User, error)
	Sessions(ctx context.Context, caller auth.Identity) ([]*models.RefreshRecord, error)
	List(ctx context.Context, caller auth.Identity) ([]*models.User, error)
	SetRole(ctx context.Context, caller auth.Identity, userID, role string) (*models.User, error)
}

type Projects interface {
	List(ctx context.Context, caller auth.Identity) ([]*models.Project, error)
	Get(ctx context.Context, caller auth.Identity, projectID string) (*models.Project, error)
	Create(ctx context.Context, caller auth.Identity, in services.ProjectInput) (*models.Project, error)
	Update(ctx context.Context, caller auth.Identity, projectID string, patch services.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, caller auth.Identity, projectID string) error
	AddMember(ctx context.Context, caller auth.Identity, projectID, userID string) error
	RemoveMember(ctx context.Context, caller auth.Identity, projectID, userID string) error
}

type Tasks interface {
	List(ctx context.Context, caller auth.Identity, projectID string) ([]models.Task, error)
	Create(ctx context.Context, caller auth.Identity, projectID string, in services.TaskInput) (*models.Task, error)
	Update(ctx context.Context, caller auth.Identity, projectID, taskID string, patch services.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, caller auth.Identity, projectID, taskID string) error
}

type Files interface {
	Upload(ctx context.Context, caller auth.Identity, projectID, taskID string, in services.UploadInput) (*models.File, error)
	DownloadURL(ctx context.Context, caller auth.Identity, projectID, taskID, fileID string) (string, *models.File, error)
	Delete(ctx context.Context, caller auth.Identity, projectID, taskID, fileID string) error
}

// IdentityResolver turns an Authorization header into an identity.
type IdentityResolver interface {
	ResolveIdentity(authorizationHeader string) auth.Identity
}

// Observer records request metrics.
type Observer interface {
	ObserveHTTP(method, route string, code int, elapsed time.Duration)
}
