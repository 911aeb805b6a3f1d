package user

import (
	"context"
)

type UserRepository interface {
	// GetByID returns ErrUserNotFound when no user has the id
	GetByID(ctx context.Context, id string) (User, error)

	// Upsert inserts the user or refreshes its profile fields and role
	Upsert(ctx context.Context, u User) (User, error)

	// CountByRole counts users holding role
	CountByRole(ctx context.Context, role Role) (int64, error)
}
