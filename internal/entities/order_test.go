package entities

import (
	"testing"
	"time"
)

func TestNewProductionOrder(t *testing.T) {
	// Arrange
	due := time.Now().Add(14 * 24 * time.Hour)

	// Act
	order := NewProductionOrder("FG-100", 50, due, PriorityHigh, "1000", "CC001")

	// Assert
	if order.Status != OrderStatusCreated {
		t.Errorf("Expected status %s, got %s", OrderStatusCreated, order.Status)
	}
	if order.Progress != 0 {
		t.Errorf("Expected progress 0, got %d", order.Progress)
	}
	if order.Quantity != 50 {
		t.Errorf("Expected quantity 50, got %f", order.Quantity)
	}
	if len(order.OrderID) != 10 || order.OrderID[:2] != "PO" {
		t.Errorf("Expected PO-prefixed 10 char id, got %s", order.OrderID)
	}
	if order.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestRelease(t *testing.T) {
	// Arrange
	order := NewProductionOrder("FG-100", 10, time.Now(), PriorityMedium, "1000", "CC001")

	// Act
	err := order.Release()

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if order.Status != OrderStatusReleased {
		t.Errorf("Expected status %s, got %s", OrderStatusReleased, order.Status)
	}

	// Releasing twice is a state conflict
	err = order.Release()
	if err == nil {
		t.Fatal("Expected error on second release")
	}
	if KindOf(err) != KindConflict {
		t.Errorf("Expected conflict kind, got %v", KindOf(err))
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusCreated, OrderStatusReleased, true},
		{OrderStatusCreated, OrderStatusCompleted, false},
		{OrderStatusReleased, OrderStatusInProgress, true},
		{OrderStatusInProgress, OrderStatusCompleted, true},
		{OrderStatusCompleted, OrderStatusReleased, false},
		{OrderStatusCancelled, OrderStatusInProgress, false},
		{OrderStatusReleased, OrderStatusCancelled, true},
		{OrderStatusDelayed, OrderStatusInProgress, true},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	if !OrderStatusCompleted.Terminal() {
		t.Error("Expected COMPLETED to be terminal")
	}
	if !OrderStatusCancelled.Terminal() {
		t.Error("Expected CANCELLED to be terminal")
	}
	if OrderStatusInProgress.Terminal() {
		t.Error("Expected IN_PROGRESS to be non-terminal")
	}
}

func TestApplyChangeQuantity(t *testing.T) {
	// Arrange
	order := NewProductionOrder("FG-100", 50, time.Now(), PriorityMedium, "1000", "CC001")

	// Act
	old, err := order.ApplyChange("quantity", "75")

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if old != "50" {
		t.Errorf("Expected old value 50, got %s", old)
	}
	if order.Quantity != 75 {
		t.Errorf("Expected quantity 75, got %f", order.Quantity)
	}
}

func TestApplyChangeRejectsUnknownField(t *testing.T) {
	order := NewProductionOrder("FG-100", 50, time.Now(), PriorityMedium, "1000", "CC001")

	_, err := order.ApplyChange("status", "COMPLETED")

	if err == nil {
		t.Fatal("Expected error for unknown field")
	}
	if KindOf(err) != KindValidation {
		t.Errorf("Expected validation kind, got %v", KindOf(err))
	}
}

func TestApplyChangeInvalidValues(t *testing.T) {
	order := NewProductionOrder("FG-100", 50, time.Now(), PriorityMedium, "1000", "CC001")

	cases := []struct {
		field string
		value string
	}{
		{"quantity", "not-a-number"},
		{"quantity", "-5"},
		{"quantity", "0"},
		{"dueDate", "31/12/2026"},
		{"priority", "EXTREME"},
	}

	for _, tc := range cases {
		if _, err := order.ApplyChange(tc.field, tc.value); err == nil {
			t.Errorf("Expected error applying %s=%q", tc.field, tc.value)
		}
	}
}

func TestParseChangeDate(t *testing.T) {
	for _, value := range []string{"2026-09-15T10:00:00Z", "2026-09-15T10:00:00", "2026-09-15"} {
		if _, err := ParseChangeDate(value); err != nil {
			t.Errorf("Expected %q to parse, got %v", value, err)
		}
	}
	if _, err := ParseChangeDate("next tuesday"); err == nil {
		t.Error("Expected parse failure")
	}
}
