package entities

import (
	"testing"
	"time"
)

func validConfirmation() *OperationConfirmation {
	start := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	return &OperationConfirmation{
		ConfirmationID:   NewID("CNF"),
		OrderID:          "PO12345678",
		OperationID:      "0010",
		WorkCenterID:     "WC-100",
		YieldQty:         10,
		ScrapQty:         1,
		StartTime:        start,
		EndTime:          start.Add(2 * time.Hour),
		ConfirmationType: ConfirmationFinal,
	}
}

func TestConfirmationValidate(t *testing.T) {
	if err := validConfirmation().Validate(); err != nil {
		t.Fatalf("Expected valid confirmation, got %v", err)
	}
}

func TestConfirmationValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *OperationConfirmation)
	}{
		{"zero yield", func(c *OperationConfirmation) { c.YieldQty = 0 }},
		{"negative yield", func(c *OperationConfirmation) { c.YieldQty = -3 }},
		{"negative scrap", func(c *OperationConfirmation) { c.ScrapQty = -1 }},
		{"end before start", func(c *OperationConfirmation) { c.EndTime = c.StartTime.Add(-time.Minute) }},
		{"end equals start", func(c *OperationConfirmation) { c.EndTime = c.StartTime }},
		{"bad type", func(c *OperationConfirmation) { c.ConfirmationType = "INTERIM" }},
	}

	for _, tc := range cases {
		c := validConfirmation()
		tc.mutate(c)
		err := c.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if KindOf(err) != KindValidation {
			t.Errorf("%s: expected validation kind, got %v", tc.name, KindOf(err))
		}
	}
}

func TestCalculateVariances(t *testing.T) {
	// Arrange: planned setup 10, actual 12 -> variance 2, 20%
	op := &Operation{SetupTime: 10, MachineTime: 20, LaborTime: 5}
	c := validConfirmation()
	c.SetupTimeActual = 12
	c.MachineTimeActual = 18
	c.LaborTimeActual = 5

	// Act
	v := CalculateVariances(c, op)

	// Assert
	if v.SetupVariance != 2 {
		t.Errorf("Expected setup variance 2, got %f", v.SetupVariance)
	}
	if v.SetupVariancePercent != 20.0 {
		t.Errorf("Expected setup variance percent 20, got %f", v.SetupVariancePercent)
	}
	if v.MachineVariance != -2 {
		t.Errorf("Expected machine variance -2, got %f", v.MachineVariance)
	}
	if v.TotalVariance != 0 {
		t.Errorf("Expected total variance 0, got %f", v.TotalVariance)
	}
}

func TestCalculateVariancesZeroPlannedBase(t *testing.T) {
	// Planned 0, actual 5: percent must be 0, never a division by zero
	op := &Operation{}
	c := validConfirmation()
	c.SetupTimeActual = 5

	v := CalculateVariances(c, op)

	if v.SetupVariance != 5 {
		t.Errorf("Expected setup variance 5, got %f", v.SetupVariance)
	}
	if v.SetupVariancePercent != 0 {
		t.Errorf("Expected setup variance percent 0, got %f", v.SetupVariancePercent)
	}
	if v.TotalVariancePercent != 0 {
		t.Errorf("Expected total variance percent 0, got %f", v.TotalVariancePercent)
	}
}

func TestDeriveStockStatus(t *testing.T) {
	cases := []struct {
		current  float64
		min      float64
		expected StockStatus
	}{
		{0, 10, StockStatusOutOfStock},
		{-5, 10, StockStatusOutOfStock},
		{4, 10, StockStatusCritical},
		{7, 10, StockStatusLowStock},
		{10, 10, StockStatusAvailable},
		{50, 10, StockStatusAvailable},
	}

	for _, tc := range cases {
		m := &Material{CurrentStock: tc.current, MinStock: tc.min}
		if got := m.DeriveStockStatus(); got != tc.expected {
			t.Errorf("current=%f min=%f: expected %s, got %s", tc.current, tc.min, tc.expected, got)
		}
	}
}

func TestStockAvailable(t *testing.T) {
	s := &Stock{OnHand: 50, SafetyStock: 10}
	if s.Available() != 40 {
		t.Errorf("Expected available 40, got %f", s.Available())
	}
}
