package usecases

import (
	"context"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

// MaxBOMDepth bounds the explosion recursion. Real BOM trees are a
// handful of levels deep; hitting this limit means runaway data.
const MaxBOMDepth = 32

// BOMExploder recursively expands bills of material into total
// component demand. Every header of a parent is expanded and the
// quantities summed: the result is total demand, not best-version
// selection.
type BOMExploder struct {
	boms repository.BOMRepository
}

// NewBOMExploder binds the exploder to a BOM repository, which may be
// transaction-scoped.
func NewBOMExploder(boms repository.BOMRepository) *BOMExploder {
	return &BOMExploder{boms: boms}
}

// Explode adds the component demand of producing qty units of the
// parent material into the accumulator, recursing through sub-assembly
// BOMs. A material without a BOM header terminates its branch. Cyclic
// BOM graphs are detected along the current path and rejected.
func (e *BOMExploder) Explode(ctx context.Context, parentMaterialID string, qty float64, acc map[string]float64) error {
	return e.explode(ctx, parentMaterialID, qty, acc, map[string]bool{parentMaterialID: true}, 0)
}

func (e *BOMExploder) explode(ctx context.Context, parent string, qty float64, acc map[string]float64, path map[string]bool, depth int) error {
	if depth >= MaxBOMDepth {
		return entities.ValidationError("BOM explosion exceeded maximum depth %d at material %s", MaxBOMDepth, parent)
	}

	headers, err := e.boms.HeadersByParent(ctx, parent)
	if err != nil {
		return err
	}

	for _, header := range headers {
		items, err := e.boms.ItemsByBOM(ctx, header.BOMID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if path[item.ComponentMaterialID] {
				return entities.ValidationError("cyclic BOM detected: material %s is its own ancestor", item.ComponentMaterialID)
			}
			need := item.Quantity * qty
			acc[item.ComponentMaterialID] += need

			path[item.ComponentMaterialID] = true
			if err := e.explode(ctx, item.ComponentMaterialID, need, acc, path, depth+1); err != nil {
				return err
			}
			delete(path, item.ComponentMaterialID)
		}
	}
	return nil
}

// WouldCycle reports whether a BOM making parent depend on the given
// components would close a cycle in the existing BOM graph. Used to
// reject cyclic BOMs at creation time.
func (e *BOMExploder) WouldCycle(ctx context.Context, parentMaterialID string, componentIDs []string) (bool, error) {
	for _, component := range componentIDs {
		if component == parentMaterialID {
			return true, nil
		}
		reachable, err := e.reaches(ctx, component, parentMaterialID, 0)
		if err != nil {
			return false, err
		}
		if reachable {
			return true, nil
		}
	}
	return false, nil
}

func (e *BOMExploder) reaches(ctx context.Context, from, target string, depth int) (bool, error) {
	if depth >= MaxBOMDepth {
		return false, nil
	}
	headers, err := e.boms.HeadersByParent(ctx, from)
	if err != nil {
		return false, err
	}
	for _, header := range headers {
		items, err := e.boms.ItemsByBOM(ctx, header.BOMID)
		if err != nil {
			return false, err
		}
		for _, item := range items {
			if item.ComponentMaterialID == target {
				return true, nil
			}
			found, err := e.reaches(ctx, item.ComponentMaterialID, target, depth+1)
			if err != nil || found {
				return found, err
			}
		}
	}
	return false, nil
}
