// Repository functions for the append-only OrderTracking history.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

// AppendTracking inserts one history row. Rows are never edited or deleted
// outside the user-delete cascade.
func AppendTracking(ctx context.Context, db *gorm.DB, t *domain.OrderTracking) error {
	t.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(t).Error
}

// ListTracking returns the history of one order, newest first.
func ListTracking(ctx context.Context, db *gorm.DB, orderID uint) ([]domain.OrderTracking, error) {
	var out []domain.OrderTracking
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}
