package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"academicevents/internal/domain"
)

type notificationService struct {
	repo           domain.NotificationRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewNotificationService returns a NotificationService backed by repo.
func NewNotificationService(repo domain.NotificationRepository, timeout time.Duration) domain.NotificationService {
	return &notificationService{repo: repo, contextTimeout: timeout, now: time.Now}
}

func (s *notificationService) Notify(ctx context.Context, userID, kind, title, message string, relatedType, relatedID *string) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n := &domain.Notification{
		UserID:            userID,
		Type:              kind,
		Title:             title,
		Message:           message,
		RelatedEntityType: relatedType,
		RelatedEntityID:   relatedID,
		CreatedAt:         s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *notificationService) List(ctx context.Context, actor domain.Principal, unreadOnly bool, params domain.PaginationParams) (*domain.NotificationPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	items, total, err := s.repo.ListByUser(ctx, actor.UserID, unreadOnly, params)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	if items == nil {
		items = []*domain.Notification{}
	}
	return &domain.NotificationPage{Items: items, Total: total, UnreadCount: unread}, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, actor domain.Principal, notificationID string) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.repo.MarkAsRead(ctx, notificationID, actor.UserID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

// notifyQuietly sends a notification and logs instead of returning failures.
func notifyQuietly(ctx context.Context, svc domain.NotificationService, logger *slog.Logger, userID, kind, title, message, relatedType, relatedID string) {
	if svc == nil {
		return
	}
	if _, err := svc.Notify(context.WithoutCancel(ctx), userID, kind, title, message, &relatedType, &relatedID); err != nil {
		logger.WarnContext(ctx, "notification failed", "user_id", userID, "kind", kind, "err", err)
	}
}

type activityLogger struct {
	repo   domain.ActivityRepository
	logger *slog.Logger
}

// NewActivityLogger returns an ActivityLogger that logs storage failures instead of returning them.
func NewActivityLogger(repo domain.ActivityRepository, logger *slog.Logger) domain.ActivityLogger {
	return &activityLogger{repo: repo, logger: logger}
}

func (a *activityLogger) Log(ctx context.Context, act *domain.UserActivity) {
	if err := a.repo.Create(context.WithoutCancel(ctx), act); err != nil {
		a.logger.WarnContext(ctx, "activity log failed", "user_id", act.UserID, "type", act.ActivityType, "err", err)
	}
}
