// Repository functions for the Order aggregate.
//
// Status writes happen exclusively through UpdateOrderStatus so that
// status_updated_at / updated_at stay consistent with the stored status. The
// readiness columns are only touched when the caller passes a computed value;
// passing nil leaves any previously stored estimate intact.
package repo

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

// CreateOrder inserts a new order row.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.StatusUpdatedAt = now
	return db.WithContext(ctx).Create(o).Error
}

// GetOrder fetches an order by id, or ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderForUser fetches an order by id constrained to its owner.
func GetOrderForUser(ctx context.Context, db *gorm.DB, id, userID uint) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus persists a canonical status together with the bookkeeping
// timestamps. When readyAt/readyLabel are non-nil the readiness estimate is
// (re)written in the same statement. Returns ErrNotFound when no row matched.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id uint, status domain.Status, readyAt *time.Time, readyLabel *string) error {
	now := time.Now().UTC()
	cols := map[string]any{
		"status":            status,
		"status_updated_at": now,
		"updated_at":        now,
	}
	if readyAt != nil && readyLabel != nil {
		cols["estimated_ready_at"] = *readyAt
		cols["estimated_time"] = *readyLabel
	}
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOrders returns all orders, optionally filtered to one canonical
// status, newest first.
func ListOrders(ctx context.Context, db *gorm.DB, status *domain.Status) ([]domain.Order, error) {
	q := db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []domain.Order
	err := q.Find(&out).Error
	return out, err
}

// ListOrdersForUser returns every order owned by userID, newest first.
func ListOrdersForUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListActiveOrdersForUser returns the user's in-flight orders, most recently
// updated first.
func ListActiveOrdersForUser(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, domain.ActiveStatuses).
		Order("status_updated_at DESC").
		Find(&out).Error
	return out, err
}

// OrderUpdate is one row of the polling fallback: the order plus the
// timestamp of its latest tracking entry.
type OrderUpdate struct {
	domain.Order
	LastTrackingUpdate *time.Time `json:"last_tracking_update,omitempty"`
}

// ListOrdersUpdatedSince returns the user's orders whose updated_at or latest
// tracking timestamp exceeds since. Backs the client polling fallback when no
// live connection is available. The MAX aggregate loses the column's time
// typing, so it is scanned as text and parsed.
func ListOrdersUpdatedSince(ctx context.Context, db *gorm.DB, userID uint, since time.Time) ([]OrderUpdate, error) {
	type row struct {
		domain.Order
		LastTrackingUpdate sql.NullString
	}
	var rows []row
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("orders.*, MAX(order_tracking.created_at) AS last_tracking_update").
		Joins("LEFT JOIN order_tracking ON order_tracking.order_id = orders.id").
		Where("orders.user_id = ?", userID).
		Group("orders.id").
		Having("orders.updated_at > ? OR MAX(order_tracking.created_at) > ?", since, since).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]OrderUpdate, 0, len(rows))
	for _, r := range rows {
		last, err := parseStoredTime(r.LastTrackingUpdate.String)
		if err != nil {
			return nil, err
		}
		out = append(out, OrderUpdate{Order: r.Order, LastTrackingUpdate: last})
	}
	return out, nil
}

// ListRecentPickups returns the latest pickup orders for the admin hand-off
// view.
func ListRecentPickups(ctx context.Context, db *gorm.DB, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("order_type = ?", domain.OrderTypePickup).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
