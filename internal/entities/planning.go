package entities

import "time"

// PlannedOrderStatus tracks whether an MRP planned order has been turned
// into a firm production order yet.
type PlannedOrderStatus string

const (
	PlannedOrderPlanned   PlannedOrderStatus = "PLANNED"
	PlannedOrderConverted PlannedOrderStatus = "CONVERTED"
)

// PlannedOrder is an MRP-generated intent to produce. Conversion to a
// production order is one-way and only legal while status is PLANNED.
type PlannedOrder struct {
	PlannedOrderID  string             `json:"planned_order_id" db:"planned_order_id"`
	MaterialID      string             `json:"material_id" db:"material_id"`
	Quantity        float64            `json:"quantity" db:"quantity"`
	DueDate         time.Time          `json:"due_date" db:"due_date"`
	StartDate       time.Time          `json:"start_date" db:"start_date"`
	Plant           string             `json:"plant" db:"plant"`
	MRPController   string             `json:"mrp_controller,omitempty" db:"mrp_controller"`
	OrderType       string             `json:"order_type" db:"order_type"`
	Status          PlannedOrderStatus `json:"status" db:"status"`
	CreatedByMRPRun string             `json:"created_by_mrp_run,omitempty" db:"created_by_mrp_run"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
}

// PurchaseRequisitionStatus tracks the procurement state of a requisition.
type PurchaseRequisitionStatus string

const (
	RequisitionOpen     PurchaseRequisitionStatus = "OPEN"
	RequisitionReleased PurchaseRequisitionStatus = "RELEASED"
	RequisitionOrdered  PurchaseRequisitionStatus = "ORDERED"
)

// PurchaseRequisition is an MRP-generated intent to procure a raw
// material externally.
type PurchaseRequisition struct {
	PRNumber        string                    `json:"pr_number" db:"pr_number"`
	MaterialID      string                    `json:"material_id" db:"material_id"`
	Quantity        float64                   `json:"quantity" db:"quantity"`
	DeliveryDate    time.Time                 `json:"delivery_date" db:"delivery_date"`
	Plant           string                    `json:"plant" db:"plant"`
	PurchasingGroup string                    `json:"purchasing_group,omitempty" db:"purchasing_group"`
	Status          PurchaseRequisitionStatus `json:"status" db:"status"`
	CreatedByMRPRun string                    `json:"created_by_mrp_run,omitempty" db:"created_by_mrp_run"`
	CreatedAt       time.Time                 `json:"created_at" db:"created_at"`
}
