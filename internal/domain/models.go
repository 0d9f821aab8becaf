// Package domain defines the persistence models for users, orders, order
// tracking history, notifications, and user blocks. These types are mapped
// with GORM and form the core data layer of the ordering application.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Role values assigned to users. Roles are set at creation time and only
// change through the owner moderation pathway (which removes the record
// rather than mutating the role).
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// NotificationTypeUser tags notifications that belong to the user-facing
// stream. Rows with an empty Type belong to the admin-facing stream; the two
// streams are queried and counted independently.
const NotificationTypeUser = "user"

// User represents an account that can place orders. Login and phone are both
// accepted as the login identifier at sign-in.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Login / Phone: unique identifiers.
//   - Password: bcrypt hash, never serialized.
//   - Role: "user", "admin", or "owner".
type User struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Login     string    `json:"login"      gorm:"type:varchar(64);not null;uniqueIndex"`
	Phone     string    `json:"phone"      gorm:"type:varchar(32);not null;uniqueIndex"`
	Password  string    `json:"-"          gorm:"type:varchar(128);not null"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null;default:'user'"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// BlockedUser is a side record whose presence marks an account as blocked.
// At most one active block exists per user id; login and phone are
// denormalized so the block survives inspection after a user is removed.
type BlockedUser struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    uint      `json:"user_id"    gorm:"not null;uniqueIndex"`
	Login     string    `json:"login"      gorm:"type:varchar(64);not null"`
	Phone     string    `json:"phone"      gorm:"type:varchar(32);not null"`
	Reason    string    `json:"reason"     gorm:"type:varchar(255)"`
	BlockedAt time.Time `json:"blocked_at" gorm:"autoCreateTime"`
}

// TableName returns the database table name for BlockedUser.
func (BlockedUser) TableName() string { return "blocked_users" }

// OrderItem is a single line of an order. Items are captured verbatim at
// checkout and stored as an opaque JSON payload on the order row.
type OrderItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image,omitempty"`
}

// OrderItems is the serialized item list of an order. It implements
// driver.Valuer and sql.Scanner so GORM persists it as a JSON text column.
type OrderItems []OrderItem

// Value marshals the item list to JSON for storage.
func (it OrderItems) Value() (driver.Value, error) {
	b, err := json.Marshal(it)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan unmarshals the stored JSON item list.
func (it *OrderItems) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*it = nil
		return nil
	case []byte:
		return json.Unmarshal(v, it)
	case string:
		return json.Unmarshal([]byte(v), it)
	default:
		return errors.New("domain: unsupported source type for OrderItems")
	}
}

// Order is the central aggregate. The canonical status stored here is
// order-type-agnostic; the pickup vocabulary is derived at the presentation
// boundary (see DisplayStatus).
//
// Invariants:
//   - PickupCode is non-nil iff OrderType is pickup.
//   - EstimatedTime / EstimatedReadyAt stay nil until the order first enters
//     StatusProcessing; they are recomputed on every entry into processing.
type Order struct {
	ID              uint       `json:"id"                gorm:"primaryKey"`
	UserID          *uint      `json:"user_id"           gorm:"index"`
	CustomerName    string     `json:"customer_name"     gorm:"type:varchar(128);not null"`
	CustomerPhone   string     `json:"customer_phone"    gorm:"type:varchar(32);not null"`
	OrderType       OrderType  `json:"order_type"        gorm:"type:varchar(16);not null"`
	Address         string     `json:"address"           gorm:"type:varchar(255)"`
	PaymentMethod   string     `json:"payment_method"    gorm:"type:varchar(32)"`
	Comments        string     `json:"comments"          gorm:"type:text"`
	Items           OrderItems `json:"items"             gorm:"type:text;not null"`
	TotalPrice      float64    `json:"total_price"       gorm:"not null"`
	Status          Status     `json:"status"            gorm:"type:varchar(32);not null;index"`
	StatusUpdatedAt time.Time  `json:"status_updated_at"`
	// EstimatedTime is the customer-facing string, e.g. "18:45 (через 30 мин)".
	EstimatedTime *string `json:"estimated_time,omitempty" gorm:"type:varchar(64)"`
	// EstimatedReadyAt is the structured target instant backing EstimatedTime;
	// remaining-time computation reads this instead of re-parsing the string.
	EstimatedReadyAt *time.Time `json:"-"`
	PickupCode       *string    `json:"pickup_code,omitempty" gorm:"type:varchar(8)"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// DisplayStatus returns the presentation vocabulary for the order's stored
// status given its type.
func (o *Order) DisplayStatus() string {
	return o.Status.Display(o.OrderType)
}

// OrderTracking is one append-only history row per status change. Rows are
// never edited or deleted outside the user-delete cascade.
type OrderTracking struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	OrderID   uint      `json:"order_id"   gorm:"not null;index"`
	UserID    *uint     `json:"user_id"    gorm:"index"`
	Status    Status    `json:"status"     gorm:"type:varchar(32);not null"`
	Message   string    `json:"message"    gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for OrderTracking.
func (OrderTracking) TableName() string { return "order_tracking" }

// Notification is a single entry in either the admin stream (Type empty) or
// the user stream (Type == NotificationTypeUser).
type Notification struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	OrderID   uint      `json:"order_id"   gorm:"not null;index"`
	UserID    *uint     `json:"user_id"    gorm:"index"`
	Message   string    `json:"message"    gorm:"type:text;not null"`
	Type      string    `json:"type"       gorm:"type:varchar(16);not null;default:'';index"`
	IsRead    bool      `json:"is_read"    gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
