// Status vocabulary and the delivery/pickup display translation.
//
// A single canonical status is persisted per order regardless of order type.
// Pickup orders relabel two of the canonical values for presentation and for
// inbound writes: "в пути" ⇄ "готов к выдаче" and "доставлен" ⇄ "выдан".
// The mapping is bijective and applied consistently in both directions, so
// presentation code never re-derives it.
package domain

import "errors"

// OrderType distinguishes delivery orders from pickup orders.
type OrderType string

// Supported order types.
const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeDelivery || t == OrderTypePickup
}

// Status is the canonical order status stored in the orders table.
type Status string

// Canonical statuses, in lifecycle order. StatusCancelled is a terminal
// side-state reachable from any non-terminal state.
const (
	StatusNew        Status = "новый"
	StatusProcessing Status = "в обработке"
	StatusPreparing  Status = "готовится"
	StatusInTransit  Status = "в пути"
	StatusDelivered  Status = "доставлен"
	StatusCancelled  Status = "отменен"
)

// Pickup-only display labels. These values are never persisted.
const (
	DisplayReadyForPickup = "готов к выдаче"
	DisplayPickedUp       = "выдан"
)

// ErrInvalidStatus is returned when an inbound status string is outside the
// canonical vocabulary (and, for pickup orders, outside the display
// vocabulary). Unknown values are rejected rather than passed through.
var ErrInvalidStatus = errors.New("unknown order status")

// AllStatuses lists every canonical status.
var AllStatuses = []Status{
	StatusNew, StatusProcessing, StatusPreparing,
	StatusInTransit, StatusDelivered, StatusCancelled,
}

// ActiveStatuses are the statuses of orders still in flight (tracked on the
// customer's active-orders view).
var ActiveStatuses = []Status{
	StatusNew, StatusProcessing, StatusPreparing, StatusInTransit,
}

// Valid reports whether s is one of the six canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusPreparing,
		StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Display translates the canonical status into the vocabulary shown for the
// given order type. Delivery orders pass through verbatim.
func (s Status) Display(t OrderType) string {
	if t == OrderTypePickup {
		switch s {
		case StatusInTransit:
			return DisplayReadyForPickup
		case StatusDelivered:
			return DisplayPickedUp
		}
	}
	return string(s)
}

// ParseStatus translates an inbound status string into the canonical value to
// persist for the given order type. For pickup orders the display labels are
// accepted and mapped back; for delivery orders only canonical values are
// accepted. Anything else returns ErrInvalidStatus.
func ParseStatus(input string, t OrderType) (Status, error) {
	if t == OrderTypePickup {
		switch input {
		case DisplayReadyForPickup:
			return StatusInTransit, nil
		case DisplayPickedUp:
			return StatusDelivered, nil
		}
	}
	s := Status(input)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
