package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/pkg/database"
)

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) activity.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, a activity.Activity) (activity.Activity, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return activity.Activity{}, fmt.Errorf("failed to generate activity id: %w", err)
	}
	a.ID = id.String()
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	a.Timestamp = a.Timestamp.UTC().Truncate(time.Microsecond)

	var details interface{}
	if a.Details != nil {
		b, err := json.Marshal(a.Details)
		if err != nil {
			return activity.Activity{}, fmt.Errorf("failed to encode activity details: %w", err)
		}
		details = string(b)
	}

	query := `
		INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, details, "timestamp")
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, a.ID, a.UserID, a.Action, a.EntityType, a.EntityID, details, formatTime(a.Timestamp))
	if err != nil {
		return activity.Activity{}, database.Unavailable("create activity", err)
	}

	return a, nil
}

func (r *activityRepository) List(ctx context.Context, limit int) ([]activity.Activity, error) {
	query := `
		SELECT l.id, l.user_id, l.action, l.entity_type, l.entity_id, l.details, l."timestamp",
			u.email, u.first_name, u.last_name
		FROM activity_logs l
		LEFT JOIN users u ON u.id = l.user_id
		ORDER BY l."timestamp" DESC, l.id DESC
		LIMIT ?
	`
	return r.query(ctx, query, limit)
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]activity.Activity, error) {
	query := `
		SELECT l.id, l.user_id, l.action, l.entity_type, l.entity_id, l.details, l."timestamp",
			u.email, u.first_name, u.last_name
		FROM activity_logs l
		LEFT JOIN users u ON u.id = l.user_id
		WHERE l.user_id = ?
		ORDER BY l."timestamp" DESC, l.id DESC
		LIMIT ?
	`
	return r.query(ctx, query, userID, limit)
}

func (r *activityRepository) query(ctx context.Context, query string, args ...interface{}) ([]activity.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.Unavailable("query activities", err)
	}
	defer rows.Close()

	activities := make([]activity.Activity, 0)
	for rows.Next() {
		var (
			a                            activity.Activity
			entityID, details, timestamp sql.NullString
			email, first, last           sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Action, &a.EntityType, &entityID, &details, &timestamp, &email, &first, &last); err != nil {
			return nil, database.Unavailable("scan activity", err)
		}

		if a.Timestamp, err = parseTime(timestamp.String); err != nil {
			return nil, err
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &a.Details); err != nil {
				return nil, fmt.Errorf("failed to decode activity details: %w", err)
			}
		}
		a.EntityID = stringPtr(entityID)
		a.UserEmail, a.UserFirstName, a.UserLastName = stringPtr(email), stringPtr(first), stringPtr(last)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, database.Unavailable("iterate activities", err)
	}

	return activities, nil
}
