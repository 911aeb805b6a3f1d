package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/domain/auth"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/middleware"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/response"
	"github.com/leadcrm/crm-backend-go/internal/pkg/sse"
	activityService "github.com/leadcrm/crm-backend-go/internal/service/activity"
)

const streamKeepalive = 30 * time.Second

type ActivityHandler interface {
	// List returns recent activity across all users
	List(w http.ResponseWriter, r *http.Request)
	// ListMine returns the caller's own activity
	ListMine(w http.ResponseWriter, r *http.Request)
	// Stream pushes new activity over server-sent events
	Stream(w http.ResponseWriter, r *http.Request)
}

type activityHandlerImpl struct {
	activityService activity.ActivityService
	keepalive       time.Duration
}

func NewActivityHandler(activityService activity.ActivityService) ActivityHandler {
	return &activityHandlerImpl{
		activityService: activityService,
		keepalive:       streamKeepalive,
	}
}

// List handles GET /activity-logs
func (h *activityHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.activityService.GetActivityLogs(r.Context(), getIntQueryParam(r, "limit", 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListMine handles GET /activity-logs/me
func (h *activityHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CurrentUser(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	result, err := h.activityService.GetUserActivityLogs(r.Context(), identity.UserID, getIntQueryParam(r, "limit", 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Stream handles GET /activity-logs/stream. Admins receive every activity,
// everyone else only their own.
func (h *activityHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.CurrentUser(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	topic := activityService.UserTopic(identity.UserID)
	if user.HasPermission(identity.Role, user.PermissionActivityViewAll) {
		topic = sse.TopicAll
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.activityService.Subscribe(r.Context(), topic)
	defer cleanup()

	// Send initial connection event
	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"user_id\":%q}\n\n", identity.UserID)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
