package entities

import (
	"time"

	"github.com/google/uuid"
)

// Stock is the per (material, plant, storage location) balance. Rows are
// created lazily on the first movement touching the combination.
type Stock struct {
	ID              string  `json:"id" db:"id"`
	MaterialID      string  `json:"material_id" db:"material_id"`
	Plant           string  `json:"plant" db:"plant"`
	StorageLocation string  `json:"storage_location" db:"storage_location"`
	OnHand          float64 `json:"on_hand" db:"on_hand"`
	SafetyStock     float64 `json:"safety_stock" db:"safety_stock"`
}

// Available is the quantity MRP may net against: on hand minus safety stock.
func (s *Stock) Available() float64 {
	return s.OnHand - s.SafetyStock
}

// MovementType is the closed set of goods movement kinds.
type MovementType string

const (
	MovementIssue      MovementType = "ISSUE"
	MovementReceipt    MovementType = "RECEIPT"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// GoodsMovement is an immutable ledger entry. Adjustment quantities are
// signed; issues and receipts carry positive quantities.
type GoodsMovement struct {
	ID              string       `json:"id" db:"id"`
	MovementType    MovementType `json:"movement_type" db:"movement_type"`
	MaterialID      string       `json:"material_id" db:"material_id"`
	Quantity        float64      `json:"quantity" db:"quantity"`
	Plant           string       `json:"plant" db:"plant"`
	StorageLocation string       `json:"storage_location" db:"storage_location"`
	OrderID         string       `json:"order_id,omitempty" db:"order_id"`
	Reference       string       `json:"reference,omitempty" db:"reference"`
	Timestamp       time.Time    `json:"timestamp" db:"timestamp"`
}

// NewGoodsMovement builds a ledger entry with a prefixed identifier.
// Prefixes follow the movement kind: GI for issues, GR for receipts and
// GS for adjustments.
func NewGoodsMovement(mt MovementType, materialID string, qty float64, plant, storageLoc string) *GoodsMovement {
	var prefix string
	switch mt {
	case MovementIssue:
		prefix = "GI"
	case MovementReceipt:
		prefix = "GR"
	default:
		prefix = "GS"
	}
	return &GoodsMovement{
		ID:              NewID(prefix),
		MovementType:    mt,
		MaterialID:      materialID,
		Quantity:        qty,
		Plant:           plant,
		StorageLocation: storageLoc,
		Timestamp:       time.Now().UTC(),
	}
}

// NewID builds a short prefixed identifier from a random UUID, the same
// shape used for orders, confirmations and movements (PO4F2A91C3, ...).
func NewID(prefix string) string {
	hex := uuid.New().String()
	clean := make([]byte, 0, 8)
	for i := 0; i < len(hex) && len(clean) < 8; i++ {
		c := hex[i]
		if c == '-' {
			continue
		}
		if c >= 'a' && c <= 'f' {
			c = c - 'a' + 'A'
		}
		clean = append(clean, c)
	}
	return prefix + string(clean)
}
