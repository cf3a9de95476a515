package constants

import "time"

// Context keys
const (
	ContextKeyUserID      = "user_id"
	ContextKeyCurrentUser = "current_user"
	ContextKeyRequestID   = "request_id"
)

// Session
const (
	SessionCookieName = "teamtask_session"
	SessionMaxAge     = 86400 * 7
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Credentials
const (
	MinPasswordLength = 6
	ResetTokenBytes   = 32
	ResetTokenTTL     = 10 * time.Minute
)

// Notifications
const (
	NotificationRetention   = 30 * 24 * time.Hour
	DefaultNotificationPage = 50
)

// AI
const (
	MaxAIGeneratedTasks = 20
)
