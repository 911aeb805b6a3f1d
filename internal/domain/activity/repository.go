package activity

import "context"

type ActivityRepository interface {
	// Create stores the activity, assigning ID and Timestamp when unset
	Create(ctx context.Context, activity Activity) (Activity, error)

	// List returns the most recent activities across all users
	List(ctx context.Context, limit int) ([]Activity, error)

	// ListByUser returns the most recent activities of one user
	ListByUser(ctx context.Context, userID string, limit int) ([]Activity, error)
}
