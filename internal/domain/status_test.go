package domain

import (
	"errors"
	"testing"
)

func TestStatus_DisplayDeliveryPassthrough(t *testing.T) {
	for _, s := range AllStatuses {
		if got := s.Display(OrderTypeDelivery); got != string(s) {
			t.Fatalf("delivery display of %q = %q, want passthrough", s, got)
		}
	}
}

func TestStatus_DisplayPickupRelabels(t *testing.T) {
	if got := StatusInTransit.Display(OrderTypePickup); got != DisplayReadyForPickup {
		t.Fatalf("pickup display of %q = %q, want %q", StatusInTransit, got, DisplayReadyForPickup)
	}
	if got := StatusDelivered.Display(OrderTypePickup); got != DisplayPickedUp {
		t.Fatalf("pickup display of %q = %q, want %q", StatusDelivered, got, DisplayPickedUp)
	}
	// Remaining statuses pass through unchanged for pickup too.
	for _, s := range []Status{StatusNew, StatusProcessing, StatusPreparing, StatusCancelled} {
		if got := s.Display(OrderTypePickup); got != string(s) {
			t.Fatalf("pickup display of %q = %q, want passthrough", s, got)
		}
	}
}

func TestParseStatus_Bijection(t *testing.T) {
	for _, typ := range []OrderType{OrderTypeDelivery, OrderTypePickup} {
		for _, s := range AllStatuses {
			back, err := ParseStatus(s.Display(typ), typ)
			if err != nil {
				t.Fatalf("ParseStatus(Display(%q, %q)): %v", s, typ, err)
			}
			if back != s {
				t.Fatalf("round trip of %q via %q = %q, want %q", s, typ, back, s)
			}
		}
	}
}

func TestParseStatus_RejectsUnknown(t *testing.T) {
	cases := []struct {
		input string
		typ   OrderType
	}{
		{"shipped", OrderTypeDelivery},
		{"", OrderTypeDelivery},
		{"ready", OrderTypePickup},
		// Pickup display labels are not valid for delivery orders.
		{DisplayReadyForPickup, OrderTypeDelivery},
		{DisplayPickedUp, OrderTypeDelivery},
	}
	for _, tc := range cases {
		if _, err := ParseStatus(tc.input, tc.typ); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("ParseStatus(%q, %q): expected ErrInvalidStatus, got %v", tc.input, tc.typ, err)
		}
	}
}

func TestParseStatus_PickupDisplayLabels(t *testing.T) {
	got, err := ParseStatus(DisplayReadyForPickup, OrderTypePickup)
	if err != nil || got != StatusInTransit {
		t.Fatalf("ParseStatus(%q) = %q, %v; want %q", DisplayReadyForPickup, got, err, StatusInTransit)
	}
	got, err = ParseStatus(DisplayPickedUp, OrderTypePickup)
	if err != nil || got != StatusDelivered {
		t.Fatalf("ParseStatus(%q) = %q, %v; want %q", DisplayPickedUp, got, err, StatusDelivered)
	}
}
