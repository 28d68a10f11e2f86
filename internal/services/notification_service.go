package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finboard/internal/core"
	"finboard/internal/storage"
)

type NotificationService struct {
	store storage.NotificationRepository
	now   func() time.Time
}

func NewNotificationService(store storage.NotificationRepository) *NotificationService {
	return &NotificationService{store: store, now: time.Now}
}

func (s *NotificationService) List(ctx context.Context) ([]core.Notification, error) {
	ns, err := s.store.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return ns, nil
}

// Notify stores a new unread notification.
func (s *NotificationService) Notify(ctx context.Context, typ core.NotificationType, title, message string) (core.Notification, error) {
	if strings.TrimSpace(title) == "" {
		return core.Notification{}, core.ErrEmptyName
	}
	n, err := s.store.InsertNotification(ctx, core.Notification{
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return core.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) (core.Notification, error) {
	n, err := s.store.MarkNotificationRead(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Notification{}, core.ErrNotificationNotFound
	}
	if err != nil {
		return core.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.store.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// UnreadCount returns how many notifications are still unread.
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	ns, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range ns {
		if !v.IsRead {
			n++
		}
	}
	return n, nil
}
