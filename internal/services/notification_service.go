package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yukikurage/teamtask-api/internal/metrics"
	"github.com/yukikurage/teamtask-api/internal/models"
	"github.com/yukikurage/teamtask-api/internal/realtime"
	"github.com/yukikurage/teamtask-api/internal/repository"
	"gorm.io/gorm"
)

// Notifier receives fire-and-forget notification requests. Implementations
// must never report failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, notifications ...models.Notification)
}

// NotificationService stores per-user notifications and pushes them to the
// user's realtime room.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher realtime.Publisher
	logger    *slog.Logger
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(repo repository.NotificationRepository, publisher realtime.Publisher, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Notify records each notification. Failures are logged and swallowed.
func (s *NotificationService) Notify(ctx context.Context, notifications ...models.Notification) {
	for i := range notifications {
		n := notifications[i]
		if err := s.repo.Create(&n); err != nil {
			metrics.ObserveNotification(string(n.Type), "error")
			s.logger.Error("failed to create notification",
				slog.Uint64("user_id", n.UserID),
				slog.String("type", string(n.Type)),
				slog.Any("error", err),
			)
			continue
		}
		metrics.ObserveNotification(string(n.Type), "ok")

		if s.publisher != nil {
			s.publisher.Publish(ctx, []string{realtime.UserRoom(n.UserID)}, realtime.Event{
				Type:         realtime.EventNotification,
				Notification: n,
			})
		}
	}
}

// NotificationPage is one page of a user's notifications
type NotificationPage struct {
	Notifications []models.Notification
	Total         int64
	UnreadCount   int64
}

// ListNotificationsInput represents filters for listing notifications
type ListNotificationsInput struct {
	UserID uint64
	Read   *bool
	Skip   int
	Limit  int
}

// List returns a page of the user's notifications with totals
func (s *NotificationService) List(input ListNotificationsInput) (*NotificationPage, error) {
	notifications, total, err := s.repo.List(repository.NotificationFilter{
		UserID: input.UserID,
		Read:   input.Read,
		Offset: input.Skip,
		Limit:  input.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.repo.CountUnread(input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &NotificationPage{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

// UnreadCount returns how many notifications the user has not read
func (s *NotificationService) UnreadCount(userID uint64) (int64, error) {
	count, err := s.repo.CountUnread(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(id, userID uint64) (*models.Notification, error) {
	notification, err := s.repo.MarkRead(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return notification, nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *NotificationService) MarkAllRead(userID uint64) (int64, error) {
	count, err := s.repo.MarkAllRead(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return count, nil
}

// Delete removes one of the user's notifications
func (s *NotificationService) Delete(id, userID uint64) error {
	count, err := s.repo.Delete(id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteRead removes every read notification of the user
func (s *NotificationService) DeleteRead(userID uint64) (int64, error) {
	count, err := s.repo.DeleteRead(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete read notifications: %w", err)
	}
	return count, nil
}

// Purge removes notifications older than the retention window
func (s *NotificationService) Purge(retention time.Duration) (int64, error) {
	count, err := s.repo.PurgeOlderThan(time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	metrics.ObservePurge(count)
	return count, nil
}
