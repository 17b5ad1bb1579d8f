// Package app assembles the domain services shared by the API and workers.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradecert/tradecert-backend/internal/calculations"
	"github.com/tradecert/tradecert-backend/internal/evidence"
	"github.com/tradecert/tradecert-backend/internal/invoices"
	"github.com/tradecert/tradecert-backend/internal/materials"
	"github.com/tradecert/tradecert-backend/internal/notifications"
	"github.com/tradecert/tradecert-backend/internal/projects"
	"github.com/tradecert/tradecert-backend/internal/quotes"
	"github.com/tradecert/tradecert-backend/internal/wholesaler"
	"github.com/tradecert/tradecert-backend/pkg/config"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/mailer"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
	"github.com/tradecert/tradecert-backend/pkg/pdf"
)

// Deps are the shared clients every service is built from.
type Deps struct {
	DB      *db.Client
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
	Sender  mailer.Sender
	Store   evidence.Store
	Now     func() time.Time
}

type Services struct {
	Projects     projects.Service
	Calculations calculations.Service
	Materials    materials.Service
	Quotes       quotes.Service
	Wholesaler   wholesaler.Service
	Gate         wholesaler.Gate
	Invoices     invoices.Service
	Evidence     evidence.Service
	Overdue      *invoices.OverdueSweeper
}

// NewServices wires repositories, the quote recalculator and the notifier
// into every domain service. Store may be nil for processes that never
// generate evidence packs.
func NewServices(d Deps) (*Services, error) {
	if d.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if d.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	sender := d.Sender
	if sender == nil {
		sender = mailer.NoopSender{}
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	conn := d.DB.DB()

	defaultVAT, err := decimal.NewFromString(strings.TrimSpace(d.Config.Quotes.DefaultVATPercent))
	if err != nil {
		return nil, fmt.Errorf("parsing default vat percent: %w", err)
	}

	quoteRepo := quotes.NewRepository(conn)
	recalculator := quotes.NewRecalculator(quoteRepo)
	materialRepo := materials.NewRepository(conn)
	invoiceRepo := invoices.NewRepository(conn)
	wholesalerRepo := wholesaler.NewRepository(conn)

	notifier, err := notifications.NewNotifier(sender, d.Logger, d.Metrics, d.Config.App.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("building notifier: %w", err)
	}

	out := &Services{}

	if out.Projects, err = projects.NewService(projects.NewRepository(conn), d.DB); err != nil {
		return nil, fmt.Errorf("projects service: %w", err)
	}
	if out.Materials, err = materials.NewService(materialRepo, d.DB, recalculator); err != nil {
		return nil, fmt.Errorf("materials service: %w", err)
	}
	out.Calculations, err = calculations.NewService(
		calculations.NewRepository(conn),
		d.DB,
		materials.NewConsolidator(materialRepo),
		recalculator,
	)
	if err != nil {
		return nil, fmt.Errorf("calculations service: %w", err)
	}
	out.Quotes, err = quotes.NewService(quotes.ServiceParams{
		Repo:         quoteRepo,
		Tx:           d.DB,
		Recalculator: recalculator,
		NumberPrefix: d.Config.Quotes.NumberPrefix,
		DefaultVAT:   defaultVAT,
		Metrics:      d.Metrics,
		Now:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("quotes service: %w", err)
	}
	out.Wholesaler, err = wholesaler.NewService(wholesaler.ServiceParams{
		Repo:         wholesalerRepo,
		Tx:           d.DB,
		Recalculator: recalculator,
		Notifier:     notifier,
		Metrics:      d.Metrics,
		LinkTTL:      d.Config.Quotes.WholesalerLinkTTL(),
		Now:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("wholesaler service: %w", err)
	}
	out.Gate, err = wholesaler.NewGate(wholesaler.GateParams{
		Repo:     wholesalerRepo,
		Tx:       d.DB,
		Notifier: notifier,
		Metrics:  d.Metrics,
		Now:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("wholesaler gate: %w", err)
	}
	out.Invoices, err = invoices.NewService(invoices.ServiceParams{
		Repo:         invoiceRepo,
		Quotes:       quoteRepo,
		Recalculator: recalculator,
		Tx:           d.DB,
		Metrics:      d.Metrics,
		PaymentTerms: d.Config.Invoices.DefaultPaymentTermsDays,
		Now:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("invoices service: %w", err)
	}
	if out.Overdue, err = invoices.NewOverdueSweeper(invoiceRepo, d.DB, d.Metrics); err != nil {
		return nil, fmt.Errorf("overdue sweeper: %w", err)
	}
	if d.Store != nil {
		out.Evidence, err = evidence.NewService(evidence.NewRepository(conn), d.DB, d.Store, pdf.Evidence, now)
		if err != nil {
			return nil, fmt.Errorf("evidence service: %w", err)
		}
	}
	return out, nil
}
