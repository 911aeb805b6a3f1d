package activity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/pkg/sse"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// EventActivity names stream events carrying a new activity
	EventActivity = "activity"
)

type ActivityServiceImpl struct {
	activity.ActivityRepository
	hub    *sse.Hub
	logger *slog.Logger
}

// NewActivityService records activities and publishes each one to the hub on
// the author's topic and sse.TopicAll. hub may be nil.
func NewActivityService(repo activity.ActivityRepository, hub *sse.Hub, logger *slog.Logger) activity.ActivityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityServiceImpl{
		ActivityRepository: repo,
		hub:                hub,
		logger:             logger,
	}
}

// UserTopic is the stream topic carrying one user's activities.
func UserTopic(userID string) string {
	return "user:" + userID
}

// LogActivity implements activity.ActivityService.
func (s *ActivityServiceImpl) LogActivity(ctx context.Context, entry activity.Entry) (activity.ActivityResponse, error) {
	if err := entry.Validate(); err != nil {
		return activity.ActivityResponse{}, err
	}

	created, err := s.ActivityRepository.Create(ctx, activity.Activity{
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
	})
	if err != nil {
		return activity.ActivityResponse{}, fmt.Errorf("failed to create activity: %w", err)
	}

	resp := toResponse(created)
	if s.hub != nil {
		s.hub.Publish(sse.Event{Name: EventActivity, Data: resp}, UserTopic(created.UserID))
	}

	s.logger.DebugContext(ctx, "activity recorded",
		slog.String("user_id", created.UserID),
		slog.String("action", created.Action),
	)
	return resp, nil
}

// GetActivityLogs implements activity.ActivityService.
func (s *ActivityServiceImpl) GetActivityLogs(ctx context.Context, limit int) (activity.ListActivityResponse, error) {
	limit = normalizeLimit(limit)

	activities, err := s.ActivityRepository.List(ctx, limit)
	if err != nil {
		return activity.ListActivityResponse{}, fmt.Errorf("failed to list activities: %w", err)
	}
	return toListResponse(activities, limit), nil
}

// GetUserActivityLogs implements activity.ActivityService.
func (s *ActivityServiceImpl) GetUserActivityLogs(ctx context.Context, userID string, limit int) (activity.ListActivityResponse, error) {
	if userID == "" {
		return activity.ListActivityResponse{}, user.ErrUserIDRequired
	}
	limit = normalizeLimit(limit)

	activities, err := s.ActivityRepository.ListByUser(ctx, userID, limit)
	if err != nil {
		return activity.ListActivityResponse{}, fmt.Errorf("failed to list user activities: %w", err)
	}
	return toListResponse(activities, limit), nil
}

// Subscribe implements activity.ActivityService. The returned channel closes
// when ctx ends or cancel is called.
func (s *ActivityServiceImpl) Subscribe(ctx context.Context, topic string) (<-chan activity.StreamEvent, func()) {
	out := make(chan activity.StreamEvent, 10)
	if s.hub == nil {
		close(out)
		return out, func() {}
	}

	ch, cleanup := s.hub.Subscribe(topic)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(activity.ActivityResponse)
				if !ok {
					continue
				}
				select {
				case out <- activity.StreamEvent{Event: event.Name, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func toListResponse(activities []activity.Activity, limit int) activity.ListActivityResponse {
	responses := make([]activity.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		responses = append(responses, toResponse(a))
	}
	return activity.ListActivityResponse{
		Limit:      limit,
		Activities: responses,
	}
}

// toResponse converts an Activity entity to ActivityResponse
func toResponse(a activity.Activity) activity.ActivityResponse {
	var userName *string
	if name := user.JoinName(a.UserFirstName, a.UserLastName); name != "" {
		userName = &name
	}
	return activity.ActivityResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		UserName:   userName,
		UserEmail:  a.UserEmail,
		Action:     a.Action,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Details:    a.Details,
		Timestamp:  a.Timestamp,
	}
}
