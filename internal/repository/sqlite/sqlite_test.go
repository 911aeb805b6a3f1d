package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.MigrateSQLite(context.Background(), db))
	return db
}

func seedUser(t *testing.T, db *sql.DB, id string, role user.Role) user.User {
	t.Helper()

	email := id + "@example.com"
	first := "First " + id
	u, err := NewUserRepository(db).Upsert(context.Background(), user.User{
		ID:        id,
		Email:     &email,
		FirstName: &first,
		Role:      role,
	})
	require.NoError(t, err)
	return u
}
