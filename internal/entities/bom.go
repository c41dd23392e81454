package entities

import "time"

// BOMHeader identifies one bill of materials for a parent material.
// Several headers may exist for the same parent (alternate versions);
// explosion expands all of them and sums the quantities.
type BOMHeader struct {
	BOMID            string     `json:"bom_id" db:"bom_id"`
	ParentMaterialID string     `json:"parent_material_id" db:"parent_material_id"`
	Version          string     `json:"version" db:"version"`
	ValidFrom        *time.Time `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo          *time.Time `json:"valid_to,omitempty" db:"valid_to"`
}

// BOMItem is one component line of a bill of materials.
type BOMItem struct {
	BOMItemID           string  `json:"bom_item_id" db:"bom_item_id"`
	BOMID               string  `json:"bom_id" db:"bom_id"`
	ComponentMaterialID string  `json:"component_material_id" db:"component_material_id"`
	Quantity            float64 `json:"quantity" db:"quantity"`
	Position            int     `json:"position" db:"position"`
}
