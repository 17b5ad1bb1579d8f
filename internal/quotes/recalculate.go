package quotes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

// Recalculator persists the totals cascade for quotes. It always runs inside
// the transaction of the mutation that changed an input.
type Recalculator struct {
	repo Repository
}

// NewRecalculator builds a recalculator over the given repository.
func NewRecalculator(repo Repository) *Recalculator {
	return &Recalculator{repo: repo}
}

// RecalculateQuote recomputes and stores one quote's totals. A quote that no
// longer exists is silently skipped.
func (r *Recalculator) RecalculateQuote(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) error {
	repo := r.repo.WithTx(tx)
	quote, err := repo.FindByID(ctx, quoteID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote for totals")
	}

	materials, err := repo.ListMaterials(ctx, quote.ProjectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load materials for totals")
	}
	labour, err := repo.ListLabour(ctx, quote.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load labour for totals")
	}

	ComputeTotals(PercentagesOf(*quote), materials, labour).Apply(quote)
	if err := repo.SaveTotals(ctx, quote); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store quote totals")
	}
	return nil
}

// RecalculateProject refreshes every quote on the project; materials are
// shared, so any material change touches all of them.
func (r *Recalculator) RecalculateProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	quotes, err := r.repo.WithTx(tx).ListByProject(ctx, projectID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list project quotes")
	}
	for _, quote := range quotes {
		if err := r.RecalculateQuote(ctx, tx, quote.ID); err != nil {
			return err
		}
	}
	return nil
}
