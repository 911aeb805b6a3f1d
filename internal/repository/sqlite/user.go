package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) user.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	query := `
		SELECT id, email, first_name, last_name, role, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	var (
		u                    user.User
		email, first, last   sql.NullString
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &email, &first, &last, &u.Role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, database.Unavailable("get user by ID", err)
	}

	u.Email, u.FirstName, u.LastName = stringPtr(email), stringPtr(first), stringPtr(last)
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return user.User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *userRepository) Upsert(ctx context.Context, u user.User) (user.User, error) {
	now := formatTime(time.Now())

	query := `
		INSERT INTO users (id, email, first_name, last_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(excluded.email, users.email),
			first_name = COALESCE(excluded.first_name, users.first_name),
			last_name = COALESCE(excluded.last_name, users.last_name),
			role = excluded.role,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.FirstName, u.LastName, string(u.Role), now, now); err != nil {
		return user.User{}, database.Unavailable("upsert user", err)
	}

	return r.GetByID(ctx, u.ID)
}

func (r *userRepository) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, string(role)).Scan(&count); err != nil {
		return 0, database.Unavailable("count users by role", err)
	}
	return count, nil
}
