package invoices

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
)

const overdueBatchSize = 200

// OverdueSweeper moves sent invoices past their due date to overdue.
type OverdueSweeper struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.DomainMetrics
}

// NewOverdueSweeper wires the sweeper used by the cron worker.
func NewOverdueSweeper(repo Repository, tx txRunner, m *metrics.DomainMetrics) (*OverdueSweeper, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &OverdueSweeper{repo: repo, tx: tx, metrics: m}, nil
}

// Sweep marks every sent invoice whose due date is before asOf's day. Each
// invoice is updated in its own transaction; failures are combined and the
// remaining rows are still processed.
func (s *OverdueSweeper) Sweep(ctx context.Context, asOf time.Time) (int, error) {
	candidates, err := s.repo.ListOverdueCandidates(ctx, truncateDay(asOf), overdueBatchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue candidates")
	}

	var (
		marked int
		errs   error
	)
	for _, invoice := range candidates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			errs = multierr.Append(errs, ctxErr)
			break
		}
		id := invoice.ID
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			changed, err := s.repo.WithTx(tx).MarkOverdue(ctx, id)
			if err != nil {
				return err
			}
			if changed {
				marked++
			}
			return nil
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invoice %s: %w", invoice.InvoiceNumber, err))
		}
	}

	s.metrics.AddInvoicesOverdue(marked)
	return marked, errs
}
