package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleAdmin, PermissionAttendanceViewAll, true},
		{RoleAdmin, PermissionActivityViewAll, true},
		{RoleEmployee, PermissionAttendancePunch, true},
		{RoleEmployee, PermissionStatsView, true},
		{RoleEmployee, PermissionAttendanceViewAll, false},
		{RoleEmployee, PermissionActivityViewAll, false},
		{Role("guest"), PermissionAttendancePunch, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HasPermission(c.role, c.permission), "%s/%s", c.role, c.permission)
	}
}

func TestIdentityToUser(t *testing.T) {
	u := Identity{UserID: "u1", Email: "a@b.co", FirstName: "Ann", Role: RoleEmployee}.ToUser()

	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "a@b.co", *u.Email)
	assert.Equal(t, "Ann", *u.FirstName)
	assert.Nil(t, u.LastName)
	assert.Equal(t, "Ann", u.FullName())
	assert.False(t, u.IsAdmin())
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleEmployee.IsValid())
	assert.False(t, Role("owner").IsValid())
	assert.False(t, Role("").IsValid())
}
