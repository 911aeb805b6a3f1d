package user

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserIDRequired          = errors.New("user ID is required")
	ErrAdminPrivilegeRequired  = errors.New("admin privilege required")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)
