// Handler wiring and service contracts.
//
// Handlers are transport-thin: they validate input, resolve the principal the
// session guard attached, call application services, and translate results
// (including sentinel errors) into HTTP responses. All business rules live in
// the services package.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
	"github.com/sino99/cafe-safar-ver1/internal/http/middleware"
	"github.com/sino99/cafe-safar-ver1/internal/repo"
	"github.com/sino99/cafe-safar-ver1/internal/services"
)

//
// Service contracts (context-aware)
//

// OrderService defines order lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type OrderService interface {
	// Create validates and persists a checkout in status "новый".
	Create(ctx context.Context, userID uint, in services.CreateOrderInput) (*domain.Order, error)
	// SetStatus moves an order to a new status, accepting display vocabulary.
	SetStatus(ctx context.Context, orderID uint, status, message string) (*services.StatusChange, error)
	// VerifyPickup checks a hand-off code and finalizes the order on a match.
	VerifyPickup(ctx context.Context, orderID uint, code string) (*services.PickupReceipt, error)
	// Get returns one order by id.
	Get(ctx context.Context, orderID uint) (*domain.Order, error)
	// GetWithHistory returns one order with tracking history, unscoped.
	GetWithHistory(ctx context.Context, orderID uint) (*services.OrderWithHistory, error)
	// GetForUser returns one of the user's orders with tracking history.
	GetForUser(ctx context.Context, orderID, userID uint) (*services.OrderWithHistory, error)
	// List returns all orders, optionally filtered by canonical status.
	List(ctx context.Context, status *domain.Status) ([]domain.Order, error)
	// ListForUser returns one user's orders with tracking history.
	ListForUser(ctx context.Context, userID uint) ([]services.OrderWithHistory, error)
	// ActiveForUser returns one user's in-flight orders.
	ActiveForUser(ctx context.Context, userID uint) ([]services.OrderView, error)
	// CheckUpdates is the polling fallback for realtime status updates.
	CheckUpdates(ctx context.Context, userID uint, since time.Time) ([]services.OrderUpdateView, error)
	// Remaining computes the readiness countdown for one order.
	Remaining(ctx context.Context, orderID, userID uint) (*services.RemainingTime, error)
}

// AccountService defines account lifecycle and moderation operations.
type AccountService interface {
	Register(ctx context.Context, login, phone, password, confirm string) (*domain.User, error)
	Login(ctx context.Context, input, password string) (*domain.User, error)
	LoginWithRole(ctx context.Context, login, password, role string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID uint, current, next string) error
	ListUsers(ctx context.Context) ([]repo.UserWithBlock, error)
	Block(ctx context.Context, userID uint, reason string) (bool, error)
	Unblock(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID uint) (bool, error)
	UserStats(ctx context.Context, userID uint) (*repo.UserStats, int64, error)
}

// StatsService defines the dashboard aggregate surfaces.
type StatsService interface {
	Daily(ctx context.Context) (*services.DailyReport, error)
	AllTime(ctx context.Context) (*repo.AllTimeStats, error)
	Pickup(ctx context.Context, recentLimit int) (*services.PickupReport, error)
}

// NotificationService defines the two notification stream surfaces.
type NotificationService interface {
	AdminList(ctx context.Context, limit int) ([]repo.AdminNotification, error)
	UserList(ctx context.Context, userID uint, limit int) ([]domain.Notification, error)
	MarkAdminRead(ctx context.Context) (int64, error)
	MarkUserRead(ctx context.Context, userID uint) (int64, error)
	DeleteAdmin(ctx context.Context, id uint) error
	AdminUnreadCount(ctx context.Context) (int64, error)
	UserUnreadCount(ctx context.Context, userID uint) (int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, orders, notifications,
// stats, and the realtime channel. It depends on abstract service interfaces
// to keep transport concerns separate from business logic.
type Handlers struct {
	orderSvc   OrderService
	accountSvc AccountService
	notifSvc   NotificationService
	statsSvc   StatsService
	sessions   *middleware.Sessions
}

// New constructs a Handlers instance bound to the given services.
func New(orderSvc OrderService, accountSvc AccountService, notifSvc NotificationService, statsSvc StatsService, sessions *middleware.Sessions) *Handlers {
	return &Handlers{
		orderSvc:   orderSvc,
		accountSvc: accountSvc,
		notifSvc:   notifSvc,
		statsSvc:   statsSvc,
		sessions:   sessions,
	}
}

// principal returns the authenticated identity the session guard attached.
func principal(c *gin.Context) (middleware.Principal, bool) {
	return middleware.PrincipalFrom(c)
}
