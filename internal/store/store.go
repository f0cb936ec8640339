// Package store persists user identity records.
package store

import (
	"context"
	"errors"

	"github.com/svsh/linkup-server/internal/models"
)

// ErrNotFound is returned when no user matches the given key.
var ErrNotFound = errors.New("user not found")

// UserStore defines persistence operations for user records.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}
