// Package usecases holds the business logic: BOM explosion, the MRP
// run, the production order lifecycle and the confirmation engine.
// Every multi-step mutation runs inside a single store transaction;
// notification dispatch happens only after the transaction commits.
package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/notify"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

// Publisher is the outbound side of the notification channel. Publish
// must never block and never fail the caller.
type Publisher interface {
	Publish(event notify.Event)
}

// noopPublisher keeps the usecases usable without a hub, e.g. in tests.
type noopPublisher struct{}

func (noopPublisher) Publish(notify.Event) {}

// Locations groups the storage locations automatic movements post to.
type Locations struct {
	FinishedGoods string
	RawMaterials  string
	Scrap         string
}

// DefaultLocations mirrors the conventional location codes.
func DefaultLocations() Locations {
	return Locations{FinishedGoods: "FG01", RawMaterials: "RM01", Scrap: "SCRAP"}
}

// postMovement applies one goods movement under a row lock: the stock
// balance is created lazily on first touch, mutated, and the ledger row
// appended. The material master's stock mirror is refreshed when the
// material exists. Issues may drive on-hand negative only when
// allowNegative is set (automatic consumption postings); manual issues
// are floored at zero.
func postMovement(ctx context.Context, s repository.Store, mv *entities.GoodsMovement, allowNegative bool) error {
	delta := mv.Quantity
	switch mv.MovementType {
	case entities.MovementIssue:
		delta = -mv.Quantity
	case entities.MovementReceipt, entities.MovementAdjustment:
		// receipt quantities are positive, adjustments carry their sign
	default:
		return entities.ValidationError("unknown movement type %q", mv.MovementType)
	}

	stock, err := s.Stocks().GetForUpdate(ctx, mv.MaterialID, mv.Plant)
	switch {
	case err == nil:
	case entities.KindOf(err) == entities.KindNotFound:
		stock = &entities.Stock{
			ID:              uuid.New().String(),
			MaterialID:      mv.MaterialID,
			Plant:           mv.Plant,
			StorageLocation: mv.StorageLocation,
		}
		if err := s.Stocks().Create(ctx, stock); err != nil {
			return err
		}
	default:
		return err
	}

	newOnHand := stock.OnHand + delta
	if !allowNegative && newOnHand < 0 {
		return entities.ValidationError("insufficient stock for %s: on hand %.2f, requested %.2f",
			mv.MaterialID, stock.OnHand, mv.Quantity)
	}
	if err := s.Stocks().UpdateOnHand(ctx, stock.ID, newOnHand); err != nil {
		return err
	}

	if err := refreshMaterialMirror(ctx, s, mv, delta); err != nil {
		return err
	}

	return s.Movements().Create(ctx, mv)
}

func refreshMaterialMirror(ctx context.Context, s repository.Store, mv *entities.GoodsMovement, delta float64) error {
	material, err := s.Materials().GetForUpdate(ctx, mv.MaterialID)
	if err != nil {
		// Movements against materials without master data still land in
		// the ledger; there is just no mirror to refresh.
		var de *entities.Error
		if errors.As(err, &de) && de.Kind == entities.KindNotFound {
			return nil
		}
		return err
	}
	material.CurrentStock += delta
	material.Status = material.DeriveStockStatus()
	ts := mv.Timestamp
	material.LastMovementDate = &ts
	return s.Materials().Update(ctx, material)
}
