// Aggregate statistics queries for the admin and owner dashboards.
// Cancelled orders are excluded from revenue figures but kept in the
// per-status breakdown.
package repo

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

// DailyStats summarizes the current day's orders, cancelled excluded.
type DailyStats struct {
	TotalOrders   int64    `json:"total_orders"`
	TotalRevenue  *float64 `json:"total_revenue"`
	AvgOrderValue *float64 `json:"avg_order_value"`
}

// DailyOrderStats computes order count, revenue, and average ticket for the
// calendar day of `day`, excluding cancelled orders.
func DailyOrderStats(ctx context.Context, db *gorm.DB, day time.Time) (*DailyStats, error) {
	var s DailyStats
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("COUNT(*) AS total_orders, SUM(total_price) AS total_revenue, AVG(total_price) AS avg_order_value").
		Where("DATE(created_at) = ? AND status <> ?", day.Format("2006-01-02"), domain.StatusCancelled).
		Scan(&s).Error
	return &s, err
}

// StatusCount is one slice of the per-status breakdown.
type StatusCount struct {
	Status domain.Status `json:"status"`
	Count  int64         `json:"count"`
}

// StatusCounts groups the day's orders by canonical status. All statuses are
// included here so the breakdown adds up, cancelled included.
func StatusCounts(ctx context.Context, db *gorm.DB, day time.Time) ([]StatusCount, error) {
	var out []StatusCount
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("status, COUNT(*) AS count").
		Where("DATE(created_at) = ?", day.Format("2006-01-02")).
		Group("status").
		Scan(&out).Error
	return out, err
}

// AllTimeStats is the lifetime order summary; cancelled orders are reported
// separately rather than folded into the totals.
type AllTimeStats struct {
	AllTimeOrders    int64    `json:"all_time_orders"`
	AllTimeRevenue   *float64 `json:"all_time_revenue"`
	CancelledOrders  int64    `json:"cancelled_orders"`
	CancelledRevenue *float64 `json:"cancelled_revenue"`
}

// AllTimeOrderStats computes the lifetime summary across every order.
func AllTimeOrderStats(ctx context.Context, db *gorm.DB) (*AllTimeStats, error) {
	var s AllTimeStats
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select(`COUNT(*) AS all_time_orders,
			SUM(total_price) AS all_time_revenue,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS cancelled_orders,
			SUM(CASE WHEN status = ? THEN total_price ELSE 0 END) AS cancelled_revenue`,
			domain.StatusCancelled, domain.StatusCancelled).
		Scan(&s).Error
	return &s, err
}

// PickupStats summarizes the day's pickup orders.
type PickupStats struct {
	TotalPickupOrders int64    `json:"total_pickup_orders"`
	PickupRevenue     *float64 `json:"pickup_revenue"`
	CompletedPickups  int64    `json:"completed_pickups"`
}

// PickupOrderStats computes pickup volume, revenue, and completed hand-offs
// for the calendar day of `day`, excluding cancelled orders.
func PickupOrderStats(ctx context.Context, db *gorm.DB, day time.Time) (*PickupStats, error) {
	var s PickupStats
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select(`COUNT(*) AS total_pickup_orders,
			SUM(total_price) AS pickup_revenue,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed_pickups`,
			domain.StatusDelivered).
		Where("DATE(created_at) = ? AND order_type = ? AND status <> ?",
			day.Format("2006-01-02"), domain.OrderTypePickup, domain.StatusCancelled).
		Scan(&s).Error
	return &s, err
}

// UserStats is one customer's lifetime order summary.
type UserStats struct {
	TotalOrders    int64      `json:"total_orders"`
	TotalSpent     *float64   `json:"total_spent"`
	FirstOrderDate *time.Time `json:"first_order_date,omitempty"`
	ActiveOrders   int64      `json:"active_orders"`
}

// UserOrderStats computes one user's totals plus their in-flight order
// count. MIN(created_at) comes back as text and is parsed explicitly.
func UserOrderStats(ctx context.Context, db *gorm.DB, userID uint) (*UserStats, error) {
	var row struct {
		TotalOrders    int64
		TotalSpent     *float64
		FirstOrderDate sql.NullString
	}
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("COUNT(*) AS total_orders, SUM(total_price) AS total_spent, MIN(created_at) AS first_order_date").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	first, err := parseStoredTime(row.FirstOrderDate.String)
	if err != nil {
		return nil, err
	}
	s := UserStats{
		TotalOrders:    row.TotalOrders,
		TotalSpent:     row.TotalSpent,
		FirstOrderDate: first,
	}
	err = db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("user_id = ? AND status IN ?", userID, domain.ActiveStatuses).
		Count(&s.ActiveOrders).Error
	return &s, err
}
