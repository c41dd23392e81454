package entities

import "time"

// ConfirmationType distinguishes partial postings from the final one on
// an operation.
type ConfirmationType string

const (
	ConfirmationPartial ConfirmationType = "PARTIAL"
	ConfirmationFinal   ConfirmationType = "FINAL"
)

// ValidConfirmationType reports whether t is PARTIAL or FINAL.
func ValidConfirmationType(t ConfirmationType) bool {
	return t == ConfirmationPartial || t == ConfirmationFinal
}

// OperationConfirmation is an append-only posting of actual output and
// times against an (order, operation, work center) triple.
type OperationConfirmation struct {
	ConfirmationID    string           `json:"confirmation_id" db:"confirmation_id"`
	OrderID           string           `json:"order_id" db:"order_id"`
	OperationID       string           `json:"operation_id" db:"operation_id"`
	WorkCenterID      string           `json:"work_center_id" db:"work_center_id"`
	YieldQty          float64          `json:"yield_qty" db:"yield_qty"`
	ScrapQty          float64          `json:"scrap_qty" db:"scrap_qty"`
	SetupTimeActual   float64          `json:"setup_time_actual" db:"setup_time_actual"`
	MachineTimeActual float64          `json:"machine_time_actual" db:"machine_time_actual"`
	LaborTimeActual   float64          `json:"labor_time_actual" db:"labor_time_actual"`
	StartTime         time.Time        `json:"start_time" db:"start_time"`
	EndTime           time.Time        `json:"end_time" db:"end_time"`
	ConfirmationType  ConfirmationType `json:"confirmation_type" db:"confirmation_type"`
	Status            string           `json:"status" db:"status"`
	ConfirmedBy       string           `json:"confirmed_by" db:"confirmed_by"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
}

// Validate checks the confirmation's own data, independent of the
// referenced order, operation and work center.
func (c *OperationConfirmation) Validate() error {
	if c.YieldQty <= 0 {
		return ValidationError("yield quantity must be greater than 0")
	}
	if c.ScrapQty < 0 {
		return ValidationError("scrap quantity cannot be negative")
	}
	if !c.EndTime.After(c.StartTime) {
		return ValidationError("end time must be after start time")
	}
	if !ValidConfirmationType(c.ConfirmationType) {
		return ValidationError("confirmation type must be PARTIAL or FINAL")
	}
	return nil
}

// Variances holds actual-minus-planned time deltas for reporting.
// Percentages are defined as 0 when the planned base is 0.
type Variances struct {
	SetupVariance          float64 `json:"setup_variance"`
	MachineVariance        float64 `json:"machine_variance"`
	LaborVariance          float64 `json:"labor_variance"`
	TotalVariance          float64 `json:"total_variance"`
	SetupVariancePercent   float64 `json:"setup_variance_percent"`
	MachineVariancePercent float64 `json:"machine_variance_percent"`
	LaborVariancePercent   float64 `json:"labor_variance_percent"`
	TotalVariancePercent   float64 `json:"total_variance_percent"`
}

// CalculateVariances compares a confirmation's actual times with the
// operation's planned times.
func CalculateVariances(c *OperationConfirmation, op *Operation) Variances {
	v := Variances{
		SetupVariance:   c.SetupTimeActual - op.SetupTime,
		MachineVariance: c.MachineTimeActual - op.MachineTime,
		LaborVariance:   c.LaborTimeActual - op.LaborTime,
	}
	v.TotalVariance = v.SetupVariance + v.MachineVariance + v.LaborVariance
	v.SetupVariancePercent = variancePercent(v.SetupVariance, op.SetupTime)
	v.MachineVariancePercent = variancePercent(v.MachineVariance, op.MachineTime)
	v.LaborVariancePercent = variancePercent(v.LaborVariance, op.LaborTime)
	v.TotalVariancePercent = variancePercent(v.TotalVariance, op.PlannedTotal())
	return v
}

func variancePercent(variance, planned float64) float64 {
	if planned <= 0 {
		return 0
	}
	return variance / planned * 100
}
