package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/leadcrm/crm-backend-go/internal/domain/activity"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", user.RoleEmployee)
	seedUser(t, db, "u2", user.RoleEmployee)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	entityID := "att-1"
	t0 := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	first, err := repo.Create(ctx, activity.Activity{
		UserID:     "u1",
		Action:     activity.ActionPunchedIn,
		EntityType: activity.EntityTypeAttendance,
		EntityID:   &entityID,
		Details:    map[string]interface{}{"location": map[string]interface{}{"lat": 1.0, "lng": 1.0}},
		Timestamp:  t0,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = repo.Create(ctx, activity.Activity{
		UserID:     "u1",
		Action:     activity.ActionPunchedOut,
		EntityType: activity.EntityTypeAttendance,
		EntityID:   &entityID,
		Details:    map[string]interface{}{"totalHours": "8.5"},
		Timestamp:  t0.Add(8*time.Hour + 30*time.Minute),
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, activity.Activity{UserID: "u2", Action: activity.ActionPunchedIn, EntityType: activity.EntityTypeAttendance, Timestamp: t0.Add(time.Hour)})
	require.NoError(t, err)

	all, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, activity.ActionPunchedOut, all[0].Action)
	assert.Equal(t, "u2", all[1].UserID)
	assert.Nil(t, all[1].EntityID)
	assert.Nil(t, all[1].Details)

	limited, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	mine, err := repo.ListByUser(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, activity.ActionPunchedOut, mine[0].Action)
	assert.Equal(t, "8.5", mine[0].Details["totalHours"])
	assert.Equal(t, activity.ActionPunchedIn, mine[1].Action)
	assert.Equal(t, "att-1", *mine[1].EntityID)
	assert.Equal(t, "u1@example.com", *mine[1].UserEmail)
	assert.True(t, t0.Equal(mine[1].Timestamp))

	location, ok := mine[1].Details["location"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.0, location["lat"])
}

func TestActivityRepository_CreateDefaultsTimestamp(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", user.RoleEmployee)
	repo := NewActivityRepository(db)

	before := time.Now().Add(-time.Second)
	created, err := repo.Create(context.Background(), activity.Activity{UserID: "u1", Action: "noted", EntityType: "lead"})
	require.NoError(t, err)
	assert.True(t, created.Timestamp.After(before))
}
