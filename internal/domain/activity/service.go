package activity

import (
	"context"
)

// ActivityRecorder is the audit sink used by services that change state.
type ActivityRecorder interface {
	LogActivity(ctx context.Context, entry Entry) (ActivityResponse, error)
}

type ActivityService interface {
	ActivityRecorder

	// GetActivityLogs returns the most recent activities across all users
	GetActivityLogs(ctx context.Context, limit int) (ListActivityResponse, error)

	// GetUserActivityLogs returns the most recent activities of one user
	GetUserActivityLogs(ctx context.Context, userID string, limit int) (ListActivityResponse, error)

	// Subscribe streams newly recorded activities published on topic
	Subscribe(ctx context.Context, topic string) (<-chan StreamEvent, func())
}
