package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaterialType classifies a material for MRP dispatching.
type MaterialType string

const (
	MaterialTypeRaw          MaterialType = "RAW"
	MaterialTypeSemiFinished MaterialType = "SEMI_FINISHED"
	MaterialTypeFinished     MaterialType = "FINISHED"
	MaterialTypeConsumable   MaterialType = "CONSUMABLE"
)

// ValidMaterialType reports whether t is one of the closed set of types.
func ValidMaterialType(t MaterialType) bool {
	switch t {
	case MaterialTypeRaw, MaterialTypeSemiFinished, MaterialTypeFinished, MaterialTypeConsumable:
		return true
	}
	return false
}

// StockStatus is derived from the current stock level against min stock.
type StockStatus string

const (
	StockStatusAvailable  StockStatus = "Available"
	StockStatusLowStock   StockStatus = "Low Stock"
	StockStatusCritical   StockStatus = "Critical"
	StockStatusOutOfStock StockStatus = "Out of Stock"
)

// Material is a master-data record. The identifier is unique across the
// whole system, not per plant.
type Material struct {
	MaterialID       string          `json:"material_id" db:"material_id"`
	Description      string          `json:"description" db:"description"`
	Type             MaterialType    `json:"type" db:"type"`
	CurrentStock     float64         `json:"current_stock" db:"current_stock"`
	MinStock         float64         `json:"min_stock" db:"min_stock"`
	MaxStock         float64         `json:"max_stock" db:"max_stock"`
	UnitOfMeasure    string          `json:"unit_of_measure" db:"unit_of_measure"`
	UnitPrice        decimal.Decimal `json:"unit_price" db:"unit_price"`
	Status           StockStatus     `json:"status" db:"status"`
	Plant            string          `json:"plant" db:"plant"`
	StorageLocation  string          `json:"storage_location" db:"storage_location"`
	LastMovementDate *time.Time      `json:"last_movement_date,omitempty" db:"last_movement_date"`
}

// DeriveStockStatus recomputes the status from current vs. min stock.
func (m *Material) DeriveStockStatus() StockStatus {
	switch {
	case m.CurrentStock <= 0:
		return StockStatusOutOfStock
	case m.CurrentStock < m.MinStock/2:
		return StockStatusCritical
	case m.CurrentStock < m.MinStock:
		return StockStatusLowStock
	default:
		return StockStatusAvailable
	}
}

// StockValue prices the current stock at the material's unit price.
func (m *Material) StockValue() decimal.Decimal {
	return m.UnitPrice.Mul(decimal.NewFromFloat(m.CurrentStock))
}
