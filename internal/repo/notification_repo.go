// Repository functions for the Notification model.
//
// Two streams live in one table, split on the type column: rows tagged
// "user" belong to the user-facing stream; everything else belongs to the
// admin stream. Listing and unread-count queries keep the streams strictly
// separate so one can never leak into the other's counts.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

// CreateNotification inserts one notification row into either stream.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	n.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(n).Error
}

// AdminNotification is an admin-stream row joined with order context.
type AdminNotification struct {
	domain.Notification
	CustomerName *string  `json:"customer_name,omitempty"`
	TotalPrice   *float64 `json:"total_price,omitempty"`
}

// ListAdminNotifications returns the newest admin-stream rows with their
// order's customer name and total attached.
func ListAdminNotifications(ctx context.Context, db *gorm.DB, limit int) ([]AdminNotification, error) {
	var out []AdminNotification
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Select("notifications.*, orders.customer_name, orders.total_price").
		Joins("LEFT JOIN orders ON orders.id = notifications.order_id").
		Where("notifications.type <> ?", domain.NotificationTypeUser).
		Order("notifications.created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListUserNotifications returns the newest user-stream rows for one user.
func ListUserNotifications(ctx context.Context, db *gorm.DB, userID uint, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, domain.NotificationTypeUser).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkAdminNotificationsRead flags every unread admin-stream row as read and
// returns how many rows changed.
func MarkAdminNotificationsRead(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("is_read = ? AND type <> ?", false, domain.NotificationTypeUser).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// MarkUserNotificationsRead flags one user's unread user-stream rows as read
// and returns how many rows changed.
func MarkUserNotificationsRead(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND type = ? AND is_read = ?", userID, domain.NotificationTypeUser, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteNotification removes one admin-stream row by id and returns how many
// rows were removed. User-stream rows are out of reach of this function.
func DeleteNotification(ctx context.Context, db *gorm.DB, id uint) (int64, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND type <> ?", id, domain.NotificationTypeUser).
		Delete(&domain.Notification{})
	return res.RowsAffected, res.Error
}

// AdminUnreadCount counts unread admin-stream rows. User-stream rows are
// excluded by the same predicate the listing uses.
func AdminUnreadCount(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("is_read = ? AND type <> ?", false, domain.NotificationTypeUser).
		Count(&n).Error
	return n, err
}

// UserUnreadCount counts one user's unread user-stream rows.
func UserUnreadCount(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND type = ? AND is_read = ?", userID, domain.NotificationTypeUser, false).
		Count(&n).Error
	return n, err
}
