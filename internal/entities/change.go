package entities

import "time"

// ChangeType classifies an order change for impact analysis.
type ChangeType string

const (
	ChangeTypeQuantity  ChangeType = "QUANTITY"
	ChangeTypeDate      ChangeType = "DATE"
	ChangeTypeRouting   ChangeType = "ROUTING"
	ChangeTypeOperation ChangeType = "OPERATION"
)

// OrderChangeHistory is an append-only audit record of one applied
// field-level change.
type OrderChangeHistory struct {
	ChangeID        string     `json:"change_id" db:"change_id"`
	OrderID         string     `json:"order_id" db:"order_id"`
	ChangeType      ChangeType `json:"change_type" db:"change_type"`
	FieldName       string     `json:"field_name" db:"field_name"`
	OldValue        string     `json:"old_value,omitempty" db:"old_value"`
	NewValue        string     `json:"new_value" db:"new_value"`
	Reason          string     `json:"reason,omitempty" db:"reason"`
	ChangedBy       string     `json:"changed_by" db:"changed_by"`
	ChangeTimestamp time.Time  `json:"change_timestamp" db:"change_timestamp"`
}

// ImpactAnalysis is the read-only result of evaluating a proposed order
// change. Warnings are advisory; blocking issues reject the change
// before any mutation.
type ImpactAnalysis struct {
	ChangeType     ChangeType `json:"change_type"`
	FieldName      string     `json:"field_name"`
	CurrentValue   string     `json:"current_value"`
	ProposedValue  string     `json:"proposed_value"`
	Impacts        []string   `json:"impacts"`
	Warnings       []string   `json:"warnings"`
	BlockingIssues []string   `json:"blocking_issues"`
}

// Blocked reports whether at least one blocking issue was found.
func (ia *ImpactAnalysis) Blocked() bool {
	return len(ia.BlockingIssues) > 0
}
