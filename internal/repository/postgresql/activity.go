package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
)

type activityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) activity.ActivityRepository {
	return &activityRepository{db: db}
}

// Create implements activity.ActivityRepository.
func (r *activityRepository) Create(ctx context.Context, a activity.Activity) (activity.Activity, error) {
	q := GetQuerier(ctx, r.db)

	id, err := uuid.NewV7()
	if err != nil {
		return activity.Activity{}, fmt.Errorf("failed to generate activity id: %w", err)
	}
	a.ID = id.String()

	query := `
		INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, details, "timestamp")
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
		RETURNING "timestamp"
	`

	var ts interface{}
	if !a.Timestamp.IsZero() {
		ts = a.Timestamp
	}

	err = q.QueryRow(ctx, query, a.ID, a.UserID, a.Action, a.EntityType, a.EntityID, a.Details, ts).Scan(&a.Timestamp)
	if err != nil {
		return activity.Activity{}, database.Unavailable("create activity", err)
	}

	return a, nil
}

// List implements activity.ActivityRepository.
func (r *activityRepository) List(ctx context.Context, limit int) ([]activity.Activity, error) {
	query := `
		SELECT l.id, l.user_id, l.action, l.entity_type, l.entity_id, l.details, l."timestamp",
			u.email, u.first_name, u.last_name
		FROM activity_logs l
		LEFT JOIN users u ON u.id = l.user_id
		ORDER BY l."timestamp" DESC
		LIMIT $1
	`
	return r.query(ctx, query, limit)
}

// ListByUser implements activity.ActivityRepository.
func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]activity.Activity, error) {
	query := `
		SELECT l.id, l.user_id, l.action, l.entity_type, l.entity_id, l.details, l."timestamp",
			u.email, u.first_name, u.last_name
		FROM activity_logs l
		LEFT JOIN users u ON u.id = l.user_id
		WHERE l.user_id = $1
		ORDER BY l."timestamp" DESC
		LIMIT $2
	`
	return r.query(ctx, query, userID, limit)
}

func (r *activityRepository) query(ctx context.Context, query string, args ...interface{}) ([]activity.Activity, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, database.Unavailable("query activities", err)
	}

	activities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (activity.Activity, error) {
		var a activity.Activity
		err := row.Scan(
			&a.ID, &a.UserID, &a.Action, &a.EntityType, &a.EntityID, &a.Details, &a.Timestamp,
			&a.UserEmail, &a.UserFirstName, &a.UserLastName,
		)
		return a, err
	})
	if err != nil {
		return nil, database.Unavailable("scan activities", err)
	}

	return activities, nil
}
