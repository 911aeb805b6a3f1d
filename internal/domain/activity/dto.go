package activity

import (
	"time"

	"github.com/leadcrm/crm-backend-go/internal/pkg/validator"
)

// Entry is an activity to be recorded
type Entry struct {
	UserID     string                 `json:"user_id" validate:"required"`
	Action     string                 `json:"action" validate:"required,max=100"`
	EntityType string                 `json:"entity_type" validate:"required,max=50"`
	EntityID   *string                `json:"entity_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (e *Entry) Validate() error {
	return validator.Struct(e)
}

type ActivityResponse struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	UserName   *string                `json:"user_name,omitempty"`
	UserEmail  *string                `json:"user_email,omitempty"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *string                `json:"entity_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

type ListActivityResponse struct {
	Limit      int                `json:"limit"`
	Activities []ActivityResponse `json:"activities"`
}

// StreamEvent is an activity pushed to stream subscribers
type StreamEvent struct {
	Event string
	Data  ActivityResponse
}
