package activity

import (
	"time"
)

// Action names recorded in the audit trail
const (
	ActionPunchedIn  = "punched_in"
	ActionPunchedOut = "punched_out"
)

// Entity types referenced by activities
const (
	EntityTypeAttendance = "attendance"
)

// Activity is one audit trail entry
type Activity struct {
	ID         string
	UserID     string
	Action     string
	EntityType string
	EntityID   *string
	Details    map[string]interface{}
	Timestamp  time.Time

	// Joined from users on listings
	UserEmail     *string
	UserFirstName *string
	UserLastName  *string
}
