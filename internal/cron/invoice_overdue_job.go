package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/tradecert/tradecert-backend/pkg/logger"
)

// InvoiceOverdueJobName is the job label used in logs and metrics.
const InvoiceOverdueJobName = "invoice-overdue"

type overdueSweeper interface {
	Sweep(ctx context.Context, asOf time.Time) (int, error)
}

type InvoiceOverdueJobParams struct {
	Logger  *logger.Logger
	Sweeper overdueSweeper
}

func NewInvoiceOverdueJob(params InvoiceOverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("overdue sweeper required")
	}
	return &invoiceOverdueJob{
		logg:    params.Logger,
		sweeper: params.Sweeper,
		now:     time.Now,
	}, nil
}

type invoiceOverdueJob struct {
	logg    *logger.Logger
	sweeper overdueSweeper
	now     func() time.Time
}

func (j *invoiceOverdueJob) Name() string { return InvoiceOverdueJobName }

// Run reports partial progress even when some invoices failed to update.
func (j *invoiceOverdueJob) Run(ctx context.Context) error {
	asOf := j.now().UTC()
	marked, err := j.sweeper.Sweep(ctx, asOf)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"as_of":           asOf,
		"invoices_marked": marked,
	})
	if err != nil {
		return fmt.Errorf("invoice overdue sweep: %w", err)
	}
	j.logg.Info(logCtx, "invoice overdue sweep complete")
	return nil
}
