package materials

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
	dbtypes "github.com/tradecert/tradecert-backend/pkg/db/types"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

// Consolidator keeps auto-extracted material items in step with calculations.
// Callers hold the project row lock, so read-modify-write on an item is atomic.
type Consolidator struct {
	repo Repository
}

// NewConsolidator builds a consolidator over the given repository.
func NewConsolidator(repo Repository) *Consolidator {
	return &Consolidator{repo: repo}
}

// OnCalculationCreated merges the calculation's cable into the project's
// derived item for that (type, size), creating it when absent. It reports
// whether any material changed.
func (c *Consolidator) OnCalculationCreated(ctx context.Context, tx *gorm.DB, calc models.Calculation) (bool, error) {
	req, ok := ExtractRequirement(calc.CalcType, calc.Inputs, calc.Outputs)
	if !ok {
		return false, nil
	}
	repo := c.repo.WithTx(tx)

	item, err := repo.FindAuto(ctx, calc.ProjectID, req.CableType, req.CableSize)
	switch {
	case err == nil:
		if item.SourceCalcIDs.Contains(calc.ID) {
			return false, nil
		}
		item.TotalLength = item.TotalLength.Add(req.LengthMetres)
		item.SourceCalcIDs = item.SourceCalcIDs.Append(calc.ID)
		if err := repo.Save(ctx, item); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge material item")
		}
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material item")
	}

	cableType, cableSize := req.CableType, req.CableSize
	created := &models.MaterialItem{
		ProjectID:     calc.ProjectID,
		Description:   req.Description(),
		CableType:     &cableType,
		CableSize:     &cableSize,
		TotalLength:   req.LengthMetres,
		Unit:          models.DefaultMaterialUnit,
		Quantity:      req.Quantity,
		ManuallyAdded: false,
		SourceCalcIDs: dbtypes.UUIDArray{calc.ID},
	}
	if err := repo.Create(ctx, created); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material item")
	}
	return true, nil
}

// OnCalculationDeleted drops calc from every derived item that references it.
// Items left without sources are deleted; the rest get TotalLength recomputed
// from the calculations that still contribute.
func (c *Consolidator) OnCalculationDeleted(ctx context.Context, tx *gorm.DB, calc models.Calculation) (bool, error) {
	repo := c.repo.WithTx(tx)

	items, err := repo.ListAutoReferencing(ctx, calc.ProjectID, calc.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material items")
	}

	for _, item := range items {
		item.SourceCalcIDs = item.SourceCalcIDs.Without(calc.ID)
		if len(item.SourceCalcIDs) == 0 {
			if err := repo.Delete(ctx, item.ID); err != nil {
				return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete material item")
			}
			continue
		}

		total, err := c.contributingLength(ctx, repo, item)
		if err != nil {
			return false, err
		}
		item.TotalLength = total
		if err := repo.Save(ctx, &item); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material item")
		}
	}
	return len(items) > 0, nil
}

func (c *Consolidator) contributingLength(ctx context.Context, repo Repository, item models.MaterialItem) (decimal.Decimal, error) {
	calcs, err := repo.FindCalculations(ctx, item.SourceCalcIDs)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load contributing calculations")
	}
	total := decimal.Zero
	for _, calc := range calcs {
		req, ok := ExtractRequirement(calc.CalcType, calc.Inputs, calc.Outputs)
		if ok && req.Matches(item) {
			total = total.Add(req.LengthMetres)
		}
	}
	return total, nil
}
