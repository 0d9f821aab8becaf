// Package services – OrderService
//
// This file implements the OrderService, the lifecycle manager for orders.
// It owns every status transition: it translates inbound display vocabulary
// to the canonical status, computes the readiness estimate on entry into
// processing, appends tracking history, fans out admin and user
// notifications, and pushes realtime events to the order's owner. All writes
// of a single transition happen in one transaction so a failure cannot leave
// the order, its history, and its notifications disagreeing.
//
// Pickup verification is a variant entry into the same lifecycle: it forces
// the terminal canonical status from any prior state and reuses the shared
// transition path, so tracking and notification behavior never diverge.
//
// Observability: the public mutation methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
	"github.com/sino99/cafe-safar-ver1/internal/realtime"
	"github.com/sino99/cafe-safar-ver1/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDeliveryFee is the flat surcharge added to delivery orders, in TJS.
const DefaultDeliveryFee = 10

// Pusher is the realtime delivery contract consumed by the order and
// notification services. *realtime.Hub satisfies it.
type Pusher interface {
	Send(userID uint, eventType string, data any) bool
}

// OrderService coordinates order creation and the status lifecycle.
type OrderService struct {
	DB   *gorm.DB
	Push Pusher

	// DeliveryFee is the surcharge expected inside delivery totals.
	DeliveryFee float64
	// Now is the clock used for readiness estimates; overridable in tests.
	Now func() time.Time
	// CodeFn issues pickup confirmation codes; overridable in tests.
	CodeFn func() string
}

// NewOrderService constructs an OrderService with the default surcharge,
// clock, and code generator.
func NewOrderService(db *gorm.DB, push Pusher) *OrderService {
	return &OrderService{
		DB:          db,
		Push:        push,
		DeliveryFee: DefaultDeliveryFee,
		Now:         time.Now,
		CodeFn:      generatePickupCode,
	}
}

// generatePickupCode draws a 4-digit code uniformly from [1000, 9999].
// Codes are not unique across orders; verification is always per-order.
func generatePickupCode() string {
	return strconv.Itoa(1000 + rand.IntN(9000))
}

// CreateOrderInput is the checkout payload accepted by Create.
type CreateOrderInput struct {
	CustomerName  string
	CustomerPhone string
	OrderType     domain.OrderType
	Address       string
	PaymentMethod string
	Comments      string
	Items         domain.OrderItems
	TotalPrice    float64
}

// Create validates the checkout payload and persists the order in status
// "новый", together with its initial tracking row and the admin and user
// notifications, in one transaction. Pickup orders get a confirmation code;
// the readiness estimate stays unset until the order enters processing.
func (s *OrderService) Create(ctx context.Context, userID uint, in CreateOrderInput) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	if in.CustomerName == "" || in.CustomerPhone == "" || len(in.Items) == 0 || in.TotalPrice <= 0 {
		return nil, ErrEmptyOrder
	}
	if !in.OrderType.Valid() {
		return nil, ErrInvalidOrderType
	}
	if in.OrderType == domain.OrderTypeDelivery && strings.TrimSpace(in.Address) == "" {
		return nil, ErrAddressRequired
	}
	if err := s.checkTotal(in); err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:        &userID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		OrderType:     in.OrderType,
		Address:       strings.TrimSpace(in.Address),
		PaymentMethod: in.PaymentMethod,
		Comments:      in.Comments,
		Items:         in.Items,
		TotalPrice:    in.TotalPrice,
		Status:        domain.StatusNew,
	}
	if in.OrderType == domain.OrderTypePickup {
		code := s.CodeFn()
		order.PickupCode = &code
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := repo.AppendTracking(ctx, tx, &domain.OrderTracking{
			OrderID: order.ID,
			UserID:  &userID,
			Status:  domain.StatusNew,
			Message: "Заказ создан",
		}); err != nil {
			return err
		}

		adminMsg := fmt.Sprintf("Новый заказ #%d от %s на сумму %v TJS",
			order.ID, order.CustomerName, order.TotalPrice)
		userMsg := "Ваш заказ успешно оформлен! Статус: новый"
		if order.PickupCode != nil {
			adminMsg += fmt.Sprintf(" (Самовывоз, код: %s)", *order.PickupCode)
			userMsg += fmt.Sprintf("\nКод для самовывоза: %s", *order.PickupCode)
		}
		if err := repo.CreateNotification(ctx, tx, &domain.Notification{
			OrderID: order.ID, UserID: &userID, Message: adminMsg,
		}); err != nil {
			return err
		}
		return repo.CreateNotification(ctx, tx, &domain.Notification{
			OrderID: order.ID, UserID: &userID, Message: userMsg,
			Type: domain.NotificationTypeUser,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// checkTotal verifies the submitted total against the item sum plus the
// delivery surcharge.
func (s *OrderService) checkTotal(in CreateOrderInput) error {
	var sum float64
	for _, it := range in.Items {
		if it.Quantity <= 0 || it.Price < 0 {
			return ErrEmptyOrder
		}
		sum += it.Price * float64(it.Quantity)
	}
	if in.OrderType == domain.OrderTypeDelivery {
		sum += s.DeliveryFee
	}
	if math.Abs(sum-in.TotalPrice) > 0.005 {
		return ErrTotalMismatch
	}
	return nil
}

// StatusChange reports the outcome of a lifecycle transition.
type StatusChange struct {
	Order         *domain.Order
	Canonical     domain.Status
	DisplayStatus string
	EstimatedTime *string
	Message       string
}

// OrderStatusEvent is the realtime payload pushed to the order's owner.
type OrderStatusEvent struct {
	OrderID       uint          `json:"orderId"`
	Status        domain.Status `json:"status"`
	DisplayStatus string        `json:"display_status"`
	EstimatedTime *string       `json:"estimatedTime,omitempty"`
	Message       string        `json:"message"`
}

// SetStatus moves an order to the status named by inbound, which may use the
// pickup display vocabulary; unknown values are rejected with
// domain.ErrInvalidStatus. Any state may be entered from any other state.
// Entering processing (re)computes the readiness estimate anchored to now.
func (s *OrderService) SetStatus(ctx context.Context, orderID uint, inbound, message string) (*StatusChange, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "SetStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", int64(orderID)),
			attribute.String("order.status", inbound),
		),
	)
	defer span.End()

	order, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	canonical, err := domain.ParseStatus(strings.TrimSpace(inbound), order.OrderType)
	if err != nil {
		return nil, err
	}
	display := canonical.Display(order.OrderType)

	var ready *ReadyBy
	if canonical == domain.StatusProcessing {
		r := computeReadyBy(s.Now())
		ready = &r
	}

	trackingMsg := strings.TrimSpace(message)
	if trackingMsg == "" {
		trackingMsg = fmt.Sprintf("Статус изменен на %q", display)
	}
	userMsg := fmt.Sprintf("Статус вашего заказа #%d обновлен: %s", order.ID, display)
	if ready != nil {
		userMsg += fmt.Sprintf(". Примерное время готовки: %s", ready.Label())
	}

	change, err := s.transition(ctx, order, canonical, transitionOpts{
		ready:       ready,
		trackingMsg: trackingMsg,
		adminMsg:    fmt.Sprintf("Статус заказа #%d изменен на %q", order.ID, display),
		userMsg:     userMsg,
	})
	if err != nil {
		return nil, err
	}
	s.pushStatus(change)
	return change, nil
}

// PickupReceipt reports a successful hand-off confirmation.
type PickupReceipt struct {
	CustomerName  string
	DisplayStatus string
}

// VerifyPickup checks the supplied hand-off code against the order. On a
// match the canonical status is forced to "доставлен" from whatever state the
// order was in (a terminal override, not a linear transition), a tracking
// row notes the confirmation, and a single admin notification is created.
// Re-confirming an already delivered order succeeds again; a wrong code
// changes nothing.
func (s *OrderService) VerifyPickup(ctx context.Context, orderID uint, code string) (*PickupReceipt, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "VerifyPickup",
		trace.WithAttributes(attribute.Int64("order.id", int64(orderID))),
	)
	defer span.End()

	order, err := repo.GetOrder(ctx, s.DB, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.OrderType != domain.OrderTypePickup || order.PickupCode == nil {
		return nil, ErrNotPickupOrder
	}
	if *order.PickupCode != code {
		return nil, ErrPickupCodeMismatch
	}

	display := domain.StatusDelivered.Display(order.OrderType)
	change, err := s.transition(ctx, order, domain.StatusDelivered, transitionOpts{
		trackingMsg: fmt.Sprintf("Код самовывоза %s подтвержден. Заказ выдан клиенту.", code),
		adminMsg: fmt.Sprintf("Код самовывоза %s подтвержден для заказа #%d. Статус: %s",
			code, order.ID, display),
		skipUserNotification: true,
	})
	if err != nil {
		return nil, err
	}
	s.pushStatus(change)
	return &PickupReceipt{CustomerName: order.CustomerName, DisplayStatus: display}, nil
}

// transitionOpts parameterizes the shared transition path.
type transitionOpts struct {
	ready       *ReadyBy
	trackingMsg string
	adminMsg    string
	userMsg     string
	// skipUserNotification suppresses the user-stream row (pickup
	// verification notifies the admin stream only).
	skipUserNotification bool
}

// transition applies one lifecycle entry atomically: order update, tracking
// append, and notification inserts commit or roll back together.
func (s *OrderService) transition(ctx context.Context, order *domain.Order, canonical domain.Status, opts transitionOpts) (*StatusChange, error) {
	var readyAt *time.Time
	var readyLabel *string
	if opts.ready != nil {
		at := opts.ready.Target.UTC()
		label := opts.ready.Label()
		readyAt, readyLabel = &at, &label
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateOrderStatus(ctx, tx, order.ID, canonical, readyAt, readyLabel); err != nil {
			return err
		}
		if err := repo.AppendTracking(ctx, tx, &domain.OrderTracking{
			OrderID: order.ID,
			UserID:  order.UserID,
			Status:  canonical,
			Message: opts.trackingMsg,
		}); err != nil {
			return err
		}
		if err := repo.CreateNotification(ctx, tx, &domain.Notification{
			OrderID: order.ID, UserID: order.UserID, Message: opts.adminMsg,
		}); err != nil {
			return err
		}
		if !opts.skipUserNotification && order.UserID != nil {
			return repo.CreateNotification(ctx, tx, &domain.Notification{
				OrderID: order.ID, UserID: order.UserID, Message: opts.userMsg,
				Type: domain.NotificationTypeUser,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = canonical
	if readyAt != nil {
		order.EstimatedReadyAt = readyAt
		order.EstimatedTime = readyLabel
	}
	return &StatusChange{
		Order:         order,
		Canonical:     canonical,
		DisplayStatus: canonical.Display(order.OrderType),
		EstimatedTime: order.EstimatedTime,
		Message:       opts.trackingMsg,
	}, nil
}

// pushStatus delivers the transition to the order's owner, best-effort.
func (s *OrderService) pushStatus(change *StatusChange) {
	if s.Push == nil || change.Order.UserID == nil {
		return
	}
	s.Push.Send(*change.Order.UserID, realtime.EventOrderStatusUpdated, OrderStatusEvent{
		OrderID:       change.Order.ID,
		Status:        change.Canonical,
		DisplayStatus: change.DisplayStatus,
		EstimatedTime: change.EstimatedTime,
		Message:       change.Message,
	})
}

// OrderView decorates an order with its derived display status so
// presentation never re-derives the mapping.
type OrderView struct {
	domain.Order
	DisplayStatus string `json:"display_status"`
}

// NewOrderView builds the presentation form of an order.
func NewOrderView(o domain.Order) OrderView {
	return OrderView{Order: o, DisplayStatus: o.DisplayStatus()}
}

// OrderWithHistory is a user-facing order annotated with its tracking rows.
type OrderWithHistory struct {
	OrderView
	TrackingHistory []domain.OrderTracking `json:"tracking_history"`
}

// Get returns one order by id.
func (s *OrderService) Get(ctx context.Context, orderID uint) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// GetWithHistory returns one order with its tracking history, unscoped.
// Admin-panel use only.
func (s *OrderService) GetWithHistory(ctx context.Context, orderID uint) (*OrderWithHistory, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	history, err := repo.ListTracking(ctx, s.DB, o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderWithHistory{OrderView: NewOrderView(*o), TrackingHistory: history}, nil
}

// GetForUser returns one of the user's orders with its tracking history.
// Foreign orders surface as ErrOrderNotFound.
func (s *OrderService) GetForUser(ctx context.Context, orderID, userID uint) (*OrderWithHistory, error) {
	o, err := repo.GetOrderForUser(ctx, s.DB, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	history, err := repo.ListTracking(ctx, s.DB, o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderWithHistory{OrderView: NewOrderView(*o), TrackingHistory: history}, nil
}

// List returns all orders, optionally filtered by a canonical status.
func (s *OrderService) List(ctx context.Context, status *domain.Status) ([]domain.Order, error) {
	return repo.ListOrders(ctx, s.DB, status)
}

// ListForUser returns the user's orders, each with its tracking history.
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]OrderWithHistory, error) {
	orders, err := repo.ListOrdersForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]OrderWithHistory, 0, len(orders))
	for _, o := range orders {
		history, err := repo.ListTracking(ctx, s.DB, o.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, OrderWithHistory{OrderView: NewOrderView(o), TrackingHistory: history})
	}
	return out, nil
}

// ActiveForUser returns the user's in-flight orders.
func (s *OrderService) ActiveForUser(ctx context.Context, userID uint) ([]OrderView, error) {
	orders, err := repo.ListActiveOrdersForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderView(o))
	}
	return out, nil
}

// OrderUpdateView is one polling-fallback row.
type OrderUpdateView struct {
	ID            uint          `json:"id"`
	Status        domain.Status `json:"status"`
	DisplayStatus string        `json:"display_status"`
	LastUpdate    time.Time     `json:"lastUpdate"`
}

// CheckUpdates is the polling fallback: it returns the user's orders whose
// row or latest tracking entry changed after since.
func (s *OrderService) CheckUpdates(ctx context.Context, userID uint, since time.Time) ([]OrderUpdateView, error) {
	rows, err := repo.ListOrdersUpdatedSince(ctx, s.DB, userID, since)
	if err != nil {
		return nil, err
	}
	out := make([]OrderUpdateView, 0, len(rows))
	for _, r := range rows {
		last := r.UpdatedAt
		if r.LastTrackingUpdate != nil && r.LastTrackingUpdate.After(last) {
			last = *r.LastTrackingUpdate
		}
		out = append(out, OrderUpdateView{
			ID:            r.ID,
			Status:        r.Status,
			DisplayStatus: r.DisplayStatus(),
			LastUpdate:    last,
		})
	}
	return out, nil
}

// RemainingTime is the countdown derived from the readiness estimate.
type RemainingTime struct {
	// Remaining is nil while the estimate has not been set.
	Remaining  *int   `json:"remaining"`
	Formatted  string `json:"formatted,omitempty"`
	TargetTime string `json:"targetTime,omitempty"`
	IsOverdue  bool   `json:"isOverdue"`
	Message    string `json:"message,omitempty"`
}

// Remaining computes the minutes left until the order's readiness estimate.
// The structured target instant is used directly; the display string is never
// parsed.
func (s *OrderService) Remaining(ctx context.Context, orderID, userID uint) (*RemainingTime, error) {
	order, err := repo.GetOrderForUser(ctx, s.DB, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.EstimatedReadyAt == nil {
		return &RemainingTime{Message: "Время готовки еще не установлено"}, nil
	}
	now := s.Now()
	mins := remainingMinutes(now, *order.EstimatedReadyAt)
	return &RemainingTime{
		Remaining:  &mins,
		Formatted:  fmt.Sprintf("%dч %dмин", mins/60, mins%60),
		TargetTime: order.EstimatedReadyAt.In(kitchenZone).Format("15:04"),
		// Compare instants: a sub-minute remainder rounds down to 0 minutes
		// but the order is not overdue until the target has passed.
		IsOverdue: now.After(*order.EstimatedReadyAt),
	}, nil
}
