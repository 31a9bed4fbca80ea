// Package users declares the server-side repository contract for user
// accounts and a PostgreSQL implementation of it.
package users

import (
	"context"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills ID and timestamps. A taken login
	// yields common.ErrDuplicateLogin.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
