package sqlite

import (
	"context"
	"testing"

	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := seedUser(t, db, "u1", user.RoleEmployee)
	assert.Equal(t, "u1", created.ID)
	assert.Equal(t, "u1@example.com", *created.Email)
	assert.False(t, created.CreatedAt.IsZero())

	last := "Doe"
	updated, err := repo.Upsert(ctx, user.User{ID: "u1", LastName: &last, Role: user.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, updated.Role)
	assert.Equal(t, "Doe", *updated.LastName)
	// Fields absent from the update are kept
	assert.Equal(t, "u1@example.com", *updated.Email)
	assert.Equal(t, "First u1", *updated.FirstName)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUserRepository_CountByRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	seedUser(t, db, "e1", user.RoleEmployee)
	seedUser(t, db, "e2", user.RoleEmployee)
	seedUser(t, db, "a1", user.RoleAdmin)

	employees, err := repo.CountByRole(context.Background(), user.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, int64(2), employees)

	admins, err := repo.CountByRole(context.Background(), user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}
