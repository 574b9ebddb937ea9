package repository

import (
	"context"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
)

// UserRepository is persistence for user accounts.
type UserRepository interface {
	// Create inserts a new user. ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateProfile persists name/bio/profile picture changes and bumps updated_at.
	UpdateProfile(ctx context.Context, u *model.User) (*model.User, error)
}
