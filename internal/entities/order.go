package entities

import (
	"strconv"
	"strings"
	"time"
)

// OrderStatus is the closed set of production order states.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "CREATED"
	OrderStatusReleased   OrderStatus = "RELEASED"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusDelayed    OrderStatus = "DELAYED"
)

// orderTransitions is the single source of truth for legal status
// transitions. CANCELLED and DELAYED are reachable from every
// non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:    {OrderStatusReleased, OrderStatusCancelled, OrderStatusDelayed},
	OrderStatusReleased:   {OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled, OrderStatusDelayed},
	OrderStatusInProgress: {OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled, OrderStatusDelayed},
	OrderStatusDelayed:    {OrderStatusReleased, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// CanTransition reports whether moving from s to next is legal.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// OrderPriority is the closed set of order priorities.
type OrderPriority string

const (
	PriorityLow    OrderPriority = "LOW"
	PriorityMedium OrderPriority = "MEDIUM"
	PriorityHigh   OrderPriority = "HIGH"
	PriorityUrgent OrderPriority = "URGENT"
)

// ValidOrderPriority reports whether p is a known priority.
func ValidOrderPriority(p OrderPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ProductionOrder is a firm instruction to produce a quantity of a
// material, optionally against a routing.
type ProductionOrder struct {
	OrderID          string        `json:"order_id" db:"order_id"`
	MaterialID       string        `json:"material_id" db:"material_id"`
	Description      string        `json:"description" db:"description"`
	Quantity         float64       `json:"quantity" db:"quantity"`
	Status           OrderStatus   `json:"status" db:"status"`
	Priority         OrderPriority `json:"priority" db:"priority"`
	Progress         int           `json:"progress" db:"progress"`
	PlannedStartDate *time.Time    `json:"planned_start_date,omitempty" db:"planned_start_date"`
	PlannedEndDate   *time.Time    `json:"planned_end_date,omitempty" db:"planned_end_date"`
	ActualStartDate  *time.Time    `json:"actual_start_date,omitempty" db:"actual_start_date"`
	ActualEndDate    *time.Time    `json:"actual_end_date,omitempty" db:"actual_end_date"`
	DueDate          time.Time     `json:"due_date" db:"due_date"`
	WorkCenterID     string        `json:"work_center_id,omitempty" db:"work_center_id"`
	RoutingID        string        `json:"routing_id,omitempty" db:"routing_id"`
	CostCenter       string        `json:"cost_center" db:"cost_center"`
	Plant            string        `json:"plant" db:"plant"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// NewProductionOrder creates an order in CREATED status with zero progress.
func NewProductionOrder(materialID string, quantity float64, dueDate time.Time, priority OrderPriority, plant, costCenter string) *ProductionOrder {
	now := time.Now().UTC()
	return &ProductionOrder{
		OrderID:    NewID("PO"),
		MaterialID: materialID,
		Quantity:   quantity,
		Status:     OrderStatusCreated,
		Priority:   priority,
		Progress:   0,
		DueDate:    dueDate,
		Plant:      plant,
		CostCenter: costCenter,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Release moves the order from CREATED to RELEASED.
func (o *ProductionOrder) Release() error {
	if o.Status != OrderStatusCreated {
		return ConflictError("only CREATED orders can be released, order %s is %s", o.OrderID, o.Status)
	}
	o.Status = OrderStatusReleased
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Confirmable checks the status gate shared by the simple and the
// operation-level confirmation paths.
func (o *ProductionOrder) Confirmable() error {
	if o.Status != OrderStatusReleased && o.Status != OrderStatusInProgress {
		return ConflictError("cannot confirm order %s in %s status", o.OrderID, o.Status)
	}
	return nil
}

// ChangeableFields is the closed set of fields the order change
// endpoints accept. Anything else is rejected up front.
var ChangeableFields = []string{"quantity", "dueDate", "priority", "routingId", "description"}

// ApplyChange mutates one changeable field after parsing newValue with
// the field's own validator. It returns the previous value rendered the
// same way the audit trail stores it.
func (o *ProductionOrder) ApplyChange(fieldName, newValue string) (oldValue string, err error) {
	switch fieldName {
	case "quantity":
		oldValue = strconv.FormatFloat(o.Quantity, 'f', -1, 64)
		qty, perr := strconv.ParseFloat(newValue, 64)
		if perr != nil || qty <= 0 {
			return "", ValidationError("invalid quantity %q", newValue)
		}
		o.Quantity = qty
	case "dueDate":
		oldValue = o.DueDate.Format(time.RFC3339)
		due, perr := ParseChangeDate(newValue)
		if perr != nil {
			return "", perr
		}
		o.DueDate = due
	case "priority":
		oldValue = string(o.Priority)
		p := OrderPriority(newValue)
		if !ValidOrderPriority(p) {
			return "", ValidationError("invalid priority %q", newValue)
		}
		o.Priority = p
	case "routingId":
		oldValue = o.RoutingID
		o.RoutingID = newValue
	case "description":
		oldValue = o.Description
		o.Description = newValue
	default:
		return "", ValidationError("field %q is not changeable, allowed: %s", fieldName, strings.Join(ChangeableFields, ", "))
	}
	o.UpdatedAt = time.Now().UTC()
	return oldValue, nil
}

// ParseChangeDate accepts RFC3339 with a tolerated trailing Z variant,
// matching the wire format order changes arrive in.
func ParseChangeDate(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02T15:04:05", value)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, ValidationError("invalid date format %q", value)
	}
	return t, nil
}
