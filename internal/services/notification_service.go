// Package services – NotificationService
//
// The notification table carries two independently consumed streams: the
// admin stream (empty type) and the user stream (type "user"). This service
// keeps them apart end to end: listing, marking read, and unread counts for
// one stream never touch the other.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/realtime"
	"github.com/sino99/cafe-safar-ver1/internal/repo"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

// NotificationService reads and settles the two notification streams.
type NotificationService struct {
	DB   *gorm.DB
	Push Pusher
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, push Pusher) *NotificationService {
	return &NotificationService{DB: db, Push: push}
}

// AdminList returns the newest admin-stream notifications with order context.
func (s *NotificationService) AdminList(ctx context.Context, limit int) ([]repo.AdminNotification, error) {
	if limit <= 0 {
		limit = 10
	}
	return repo.ListAdminNotifications(ctx, s.DB, limit)
}

// UserList returns the newest user-stream notifications for one user.
func (s *NotificationService) UserList(ctx context.Context, userID uint, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 10
	}
	return repo.ListUserNotifications(ctx, s.DB, userID, limit)
}

// MarkAdminRead settles the unread admin stream and returns how many rows
// changed.
func (s *NotificationService) MarkAdminRead(ctx context.Context) (int64, error) {
	return repo.MarkAdminNotificationsRead(ctx, s.DB)
}

// MarkUserRead settles one user's unread stream and pushes a
// NOTIFICATIONS_READ event so other open tabs update their badge.
func (s *NotificationService) MarkUserRead(ctx context.Context, userID uint) (int64, error) {
	n, err := repo.MarkUserNotificationsRead(ctx, s.DB, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.Push != nil {
		s.Push.Send(userID, realtime.EventNotificationsRead, map[string]int64{"count": n})
	}
	return n, nil
}

// DeleteAdmin removes one admin-stream notification.
func (s *NotificationService) DeleteAdmin(ctx context.Context, id uint) error {
	n, err := repo.DeleteNotification(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// AdminUnreadCount counts the unread admin stream; user-stream rows never
// leak into it.
func (s *NotificationService) AdminUnreadCount(ctx context.Context) (int64, error) {
	return repo.AdminUnreadCount(ctx, s.DB)
}

// UserUnreadCount counts one user's unread stream.
func (s *NotificationService) UserUnreadCount(ctx context.Context, userID uint) (int64, error) {
	return repo.UserUnreadCount(ctx, s.DB, userID)
}
