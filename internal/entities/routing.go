package entities

import "time"

// RoutingStatus is the lifecycle state of a routing.
type RoutingStatus string

const (
	RoutingStatusActive   RoutingStatus = "ACTIVE"
	RoutingStatusInactive RoutingStatus = "INACTIVE"
	RoutingStatusDraft    RoutingStatus = "DRAFT"
)

// OperationStatus is the lifecycle state of a routing operation.
type OperationStatus string

const (
	OperationStatusActive    OperationStatus = "ACTIVE"
	OperationStatusInactive  OperationStatus = "INACTIVE"
	OperationStatusCompleted OperationStatus = "COMPLETED"
)

// Routing is the ordered sequence of operations used to produce one
// material. Deleting a routing is blocked while any production order
// references it.
type Routing struct {
	RoutingID   string        `json:"routing_id" db:"routing_id"`
	MaterialID  string        `json:"material_id" db:"material_id"`
	Description string        `json:"description" db:"description"`
	Version     string        `json:"version" db:"version"`
	Status      RoutingStatus `json:"status" db:"status"`
	Plant       string        `json:"plant" db:"plant"`
	ValidFrom   *time.Time    `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo     *time.Time    `json:"valid_to,omitempty" db:"valid_to"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Operation is one step of a routing. Times are minutes; setup is per
// lot, machine and labor are per unit. Operation numbering is unique
// within the routing.
type Operation struct {
	OperationID  string          `json:"operation_id" db:"operation_id"`
	RoutingID    string          `json:"routing_id" db:"routing_id"`
	WorkCenterID string          `json:"work_center_id" db:"work_center_id"`
	Description  string          `json:"description" db:"description"`
	Sequence     int             `json:"sequence" db:"sequence"`
	SetupTime    float64         `json:"setup_time" db:"setup_time"`
	MachineTime  float64         `json:"machine_time" db:"machine_time"`
	LaborTime    float64         `json:"labor_time" db:"labor_time"`
	Status       OperationStatus `json:"status" db:"status"`
	ControlKey   string          `json:"control_key" db:"control_key"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// PlannedTotal is the planned time of one execution of the operation.
func (op *Operation) PlannedTotal() float64 {
	return op.SetupTime + op.MachineTime + op.LaborTime
}

// WorkCenterStatus is the availability state of a work center.
type WorkCenterStatus string

const (
	WorkCenterStatusActive      WorkCenterStatus = "ACTIVE"
	WorkCenterStatusInactive    WorkCenterStatus = "INACTIVE"
	WorkCenterStatusMaintenance WorkCenterStatus = "MAINTENANCE"
)

// WorkCenter is a master-data record for a production resource.
type WorkCenter struct {
	WorkCenterID string           `json:"work_center_id" db:"work_center_id"`
	Name         string           `json:"name" db:"name"`
	Description  string           `json:"description" db:"description"`
	Capacity     int              `json:"capacity" db:"capacity"`
	Efficiency   float64          `json:"efficiency" db:"efficiency"`
	Status       WorkCenterStatus `json:"status" db:"status"`
	CostCenter   string           `json:"cost_center" db:"cost_center"`
	Plant        string           `json:"plant" db:"plant"`
}
