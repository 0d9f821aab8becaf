package repo

import (
	"context"
	"testing"
	"time"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
)

func uintPtr(v uint) *uint { return &v }

func mkOrder(userID uint, typ domain.OrderType, status domain.Status, total float64) *domain.Order {
	return &domain.Order{
		UserID:        uintPtr(userID),
		CustomerName:  "Тест",
		CustomerPhone: "+992900000000",
		OrderType:     typ,
		PaymentMethod: "наличные",
		Items:         domain.OrderItems{{Name: "Плов", Price: total, Quantity: 1}},
		TotalPrice:    total,
		Status:        status,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	ctx := context.Background()

	o := mkOrder(1, domain.OrderTypePickup, domain.StatusNew, 90)
	if err := CreateOrder(ctx, db, o); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if o.CreatedAt.IsZero() || o.StatusUpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", o)
	}

	got, err := GetOrder(ctx, db, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.TotalPrice != 90 || got.OrderType != domain.OrderTypePickup {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Плов" {
		t.Fatalf("items did not survive the text column: %+v", got.Items)
	}

	if _, err := GetOrder(ctx, db, 9999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOrderForUser_Scoping(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	ctx := context.Background()

	o := mkOrder(7, domain.OrderTypeDelivery, domain.StatusNew, 100)
	if err := CreateOrder(ctx, db, o); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if _, err := GetOrderForUser(ctx, db, o.ID, 7); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := GetOrderForUser(ctx, db, o.ID, 8); err != ErrNotFound {
		t.Fatalf("foreign lookup expected ErrNotFound, got %v", err)
	}
}

func TestUpdateOrderStatus_ReadinessColumns(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	ctx := context.Background()

	o := mkOrder(1, domain.OrderTypePickup, domain.StatusNew, 90)
	if err := CreateOrder(ctx, db, o); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	ready := time.Date(2026, 5, 1, 15, 30, 0, 0, time.UTC)
	label := "15:30 (через 30 мин)"
	if err := UpdateOrderStatus(ctx, db, o.ID, domain.StatusProcessing, &ready, &label); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}

	got, err := GetOrder(ctx, db, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Status != domain.StatusProcessing {
		t.Fatalf("status = %q", got.Status)
	}
	if got.EstimatedTime == nil || *got.EstimatedTime != label {
		t.Fatalf("estimated_time = %v", got.EstimatedTime)
	}
	if got.EstimatedReadyAt == nil || !got.EstimatedReadyAt.Equal(ready) {
		t.Fatalf("estimated_ready_at = %v", got.EstimatedReadyAt)
	}

	// A later transition without an estimate leaves the stored one intact.
	if err := UpdateOrderStatus(ctx, db, o.ID, domain.StatusPreparing, nil, nil); err != nil {
		t.Fatalf("UpdateOrderStatus (no estimate): %v", err)
	}
	got, _ = GetOrder(ctx, db, o.ID)
	if got.Status != domain.StatusPreparing {
		t.Fatalf("status = %q", got.Status)
	}
	if got.EstimatedTime == nil || *got.EstimatedTime != label {
		t.Fatalf("estimate was clobbered: %v", got.EstimatedTime)
	}

	if err := UpdateOrderStatus(ctx, db, 9999, domain.StatusPreparing, nil, nil); err != ErrNotFound {
		t.Fatalf("missing order expected ErrNotFound, got %v", err)
	}
}

func TestListActiveOrdersForUser_ExcludesTerminal(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	ctx := context.Background()

	for _, st := range []domain.Status{
		domain.StatusNew, domain.StatusPreparing,
		domain.StatusDelivered, domain.StatusCancelled,
	} {
		if err := CreateOrder(ctx, db, mkOrder(3, domain.OrderTypeDelivery, st, 50)); err != nil {
			t.Fatalf("seed %s: %v", st, err)
		}
	}
	// Another user's active order must not appear.
	if err := CreateOrder(ctx, db, mkOrder(4, domain.OrderTypeDelivery, domain.StatusNew, 50)); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	active, err := ListActiveOrdersForUser(ctx, db, 3)
	if err != nil {
		t.Fatalf("ListActiveOrdersForUser: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active orders, got %d", len(active))
	}
	for _, o := range active {
		if o.Status == domain.StatusDelivered || o.Status == domain.StatusCancelled {
			t.Fatalf("terminal order leaked: %+v", o)
		}
	}
}

func TestListOrdersUpdatedSince(t *testing.T) {
	db := newTestDB(t, &domain.Order{}, &domain.OrderTracking{})
	ctx := context.Background()

	stale := mkOrder(5, domain.OrderTypeDelivery, domain.StatusDelivered, 60)
	fresh := mkOrder(5, domain.OrderTypeDelivery, domain.StatusNew, 70)
	if err := CreateOrder(ctx, db, stale); err != nil {
		t.Fatalf("seed stale: %v", err)
	}
	if err := CreateOrder(ctx, db, fresh); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	// Age the stale order's bookkeeping below the cursor.
	old := time.Now().UTC().Add(-2 * time.Hour)
	if err := db.Model(&domain.Order{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("age stale: %v", err)
	}

	since := time.Now().UTC().Add(-time.Hour)
	ups, err := ListOrdersUpdatedSince(ctx, db, 5, since)
	if err != nil {
		t.Fatalf("ListOrdersUpdatedSince: %v", err)
	}
	if len(ups) != 1 || ups[0].ID != fresh.ID {
		t.Fatalf("expected only the fresh order, got %+v", ups)
	}

	// A new tracking row revives the stale order past the cursor.
	if err := AppendTracking(ctx, db, &domain.OrderTracking{
		OrderID: stale.ID,
		Status:  domain.StatusDelivered,
		Message: "Заказ доставлен",
	}); err != nil {
		t.Fatalf("AppendTracking: %v", err)
	}
	ups, err = ListOrdersUpdatedSince(ctx, db, 5, since)
	if err != nil {
		t.Fatalf("ListOrdersUpdatedSince (after tracking): %v", err)
	}
	if len(ups) != 2 {
		t.Fatalf("expected both orders after tracking append, got %d", len(ups))
	}
	for _, u := range ups {
		if u.ID == stale.ID && u.LastTrackingUpdate == nil {
			t.Fatalf("stale order missing last_tracking_update")
		}
	}
}

func TestListRecentPickups_TypeAndLimit(t *testing.T) {
	db := newTestDB(t, &domain.Order{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := CreateOrder(ctx, db, mkOrder(1, domain.OrderTypePickup, domain.StatusNew, 40)); err != nil {
			t.Fatalf("seed pickup: %v", err)
		}
	}
	if err := CreateOrder(ctx, db, mkOrder(1, domain.OrderTypeDelivery, domain.StatusNew, 40)); err != nil {
		t.Fatalf("seed delivery: %v", err)
	}

	got, err := ListRecentPickups(ctx, db, 2)
	if err != nil {
		t.Fatalf("ListRecentPickups: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2, got %d", len(got))
	}
	for _, o := range got {
		if o.OrderType != domain.OrderTypePickup {
			t.Fatalf("non-pickup leaked: %+v", o)
		}
	}
}

func TestListTracking_NewestFirst(t *testing.T) {
	db := newTestDB(t, &domain.OrderTracking{})
	ctx := context.Background()

	for i, st := range []domain.Status{domain.StatusNew, domain.StatusProcessing} {
		tr := &domain.OrderTracking{OrderID: 1, Status: st, Message: string(st)}
		if err := AppendTracking(ctx, db, tr); err != nil {
			t.Fatalf("AppendTracking: %v", err)
		}
		// Force distinct timestamps (sqlite stores μs precision anyway).
		db.Model(tr).UpdateColumn("created_at", time.Now().UTC().Add(time.Duration(i)*time.Minute))
	}

	rows, err := ListTracking(ctx, db, 1)
	if err != nil {
		t.Fatalf("ListTracking: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Status != domain.StatusProcessing {
		t.Fatalf("expected newest first, got %q", rows[0].Status)
	}
}
