package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/projects"
	"github.com/tradecert/tradecert-backend/internal/quotes"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
	"github.com/tradecert/tradecert-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// Service exposes invoice derivation and lifecycle operations.
type Service interface {
	FromQuote(ctx context.Context, ownerID string, input FromQuoteInput) (*models.Invoice, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, ownerID string, invoiceID uuid.UUID) (*models.Invoice, error)
	Update(ctx context.Context, ownerID string, invoiceID uuid.UUID, input UpdateInput) (*models.Invoice, error)
	ChangeStatus(ctx context.Context, ownerID string, invoiceID uuid.UUID, input StatusInput) (*models.Invoice, error)
	RecordPayment(ctx context.Context, ownerID string, invoiceID uuid.UUID, input PaymentInput) (*models.Invoice, error)
	Delete(ctx context.Context, ownerID string, invoiceID uuid.UUID) error
	Document(ctx context.Context, ownerID string, invoiceID uuid.UUID) (*Document, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// FromQuoteInput converts a customer quote into a draft invoice.
type FromQuoteInput struct {
	QuoteID      uuid.UUID `json:"quoteId" validate:"required"`
	PaymentTerms *int      `json:"paymentTerms" validate:"omitempty,min=0,max=365"`
	Notes        *string   `json:"notes" validate:"omitempty,max=4000"`
}

// UpdateInput edits an unpaid invoice.
type UpdateInput struct {
	Notes   *string `json:"notes" validate:"omitempty,max=4000"`
	DueDate *string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

// StatusInput requests a lifecycle transition.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=draft sent paid overdue"`
}

// PaymentInput records how an invoice was settled.
type PaymentInput struct {
	PaidAt           *time.Time `json:"paidAt"`
	PaymentMethod    *string    `json:"paymentMethod" validate:"omitempty,max=100"`
	PaymentReference *string    `json:"paymentReference" validate:"omitempty,max=200"`
}

// ListParams configures invoice listing.
type ListParams struct {
	OwnerID   string
	ProjectID *uuid.UUID
	Status    string
	Limit     int
	Cursor    string
}

// ListResult wraps returned invoices and the cursor for the next page.
type ListResult struct {
	Items  []models.Invoice `json:"items"`
	Cursor string           `json:"cursor"`
}

// Document is what a renderer needs to print an invoice.
type Document struct {
	Project models.Project
	Invoice models.Invoice
}

// ServiceParams groups invoice service dependencies.
type ServiceParams struct {
	Repo         Repository
	Quotes       quotes.Repository
	Recalculator *quotes.Recalculator
	Tx           txRunner
	Metrics      *metrics.DomainMetrics
	PaymentTerms int
	Now          func() time.Time
}

type service struct {
	repo         Repository
	quotes       quotes.Repository
	recalculator *quotes.Recalculator
	tx           txRunner
	metrics      *metrics.DomainMetrics
	paymentTerms int
	now          func() time.Time
}

// NewService wires invoice dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if params.Quotes == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if params.Recalculator == nil {
		return nil, fmt.Errorf("quote recalculator required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	terms := params.PaymentTerms
	if terms <= 0 {
		terms = 30
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		quotes:       params.Quotes,
		recalculator: params.Recalculator,
		tx:           params.Tx,
		metrics:      params.Metrics,
		paymentTerms: terms,
		now:          now,
	}, nil
}

// FromQuote snapshots a freshly recalculated quote into a draft invoice and
// marks the quote converted. A quote converts at most once.
func (s *service) FromQuote(ctx context.Context, ownerID string, input FromQuoteInput) (*models.Invoice, error) {
	if input.QuoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quoteId is required")
	}
	terms := s.paymentTerms
	if input.PaymentTerms != nil {
		if *input.PaymentTerms < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentTerms must not be negative")
		}
		terms = *input.PaymentTerms
	}

	var created *models.Invoice
	err := db.RetryOnUniqueViolation(ctx, numberAttempts, invoiceNumberConstraint, func() error {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			quoteRepo := s.quotes.WithTx(tx)
			quote, err := quoteRepo.FindOwned(ctx, ownerID, input.QuoteID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
			}
			if _, err := projects.LockOwned(ctx, tx, ownerID, quote.ProjectID); err != nil {
				return err
			}
			if quote.Status == enums.QuoteStatusConverted {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "quote has already been converted to an invoice")
			}

			if err := s.recalculator.RecalculateQuote(ctx, tx, quote.ID); err != nil {
				return err
			}
			quote, err = quoteRepo.FindByID(ctx, quote.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quote")
			}
			materials, err := quoteRepo.ListMaterials(ctx, quote.ProjectID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load materials")
			}
			labour, err := quoteRepo.ListLabour(ctx, quote.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load labour")
			}

			repo := s.repo.WithTx(tx)
			now := s.now().UTC()
			number, err := nextNumber(ctx, repo, now)
			if err != nil {
				return err
			}

			issue := truncateDay(now)
			quoteID := quote.ID
			invoice := &models.Invoice{
				ProjectID:     quote.ProjectID,
				OwnerID:       ownerID,
				QuoteID:       &quoteID,
				InvoiceNumber: number,
				Status:        enums.InvoiceStatusDraft,
				PaymentTerms:  terms,
				IssueDate:     issue,
				DueDate:       issue.AddDate(0, 0, terms),
				Notes:         input.Notes,
			}
			copyTotals(invoice, *quote)

			items := snapshotItems(materials, labour)
			if err := repo.Create(ctx, invoice, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
			}

			quote.Status = enums.QuoteStatusConverted
			quote.ConvertedAt = &now
			if err := quoteRepo.Save(ctx, quote); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark quote converted")
			}

			invoice.Items = items
			created = invoice
			return nil
		})
		if err != nil && db.IsUniqueViolation(err, invoiceNumberConstraint) {
			s.metrics.IncNumberConflict("invoice")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncInvoiceCreated()
	return created, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner required")
	}

	query := listParams{OwnerID: params.OwnerID, ProjectID: params.ProjectID, Limit: params.Limit}
	if params.Status != "" {
		status, err := enums.ParseInvoiceStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &status
	}
	if params.Cursor != "" {
		cursor, err := pagination.Decode(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}

	cursor := ""
	if next != nil {
		cursor = next.Encode()
	}
	if rows == nil {
		rows = []models.Invoice{}
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, ownerID string, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindOwned(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if err := s.attachItems(ctx, s.repo, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *service) Update(ctx context.Context, ownerID string, invoiceID uuid.UUID, input UpdateInput) (*models.Invoice, error) {
	return s.mutate(ctx, ownerID, invoiceID, func(invoice *models.Invoice) error {
		if invoice.Status == enums.InvoiceStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "paid invoices cannot be edited")
		}
		if input.Notes != nil {
			invoice.Notes = input.Notes
		}
		if input.DueDate != nil {
			due, err := time.Parse(dateLayout, *input.DueDate)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "dueDate must be YYYY-MM-DD")
			}
			if due.Before(invoice.IssueDate) {
				return pkgerrors.New(pkgerrors.CodeValidation, "dueDate cannot be before the issue date")
			}
			invoice.DueDate = due
			invoice.PaymentTerms = int(due.Sub(truncateDay(invoice.IssueDate)).Hours() / 24)
		}
		return nil
	})
}

func (s *service) ChangeStatus(ctx context.Context, ownerID string, invoiceID uuid.UUID, input StatusInput) (*models.Invoice, error) {
	next, err := enums.ParseInvoiceStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	return s.mutate(ctx, ownerID, invoiceID, func(invoice *models.Invoice) error {
		if !invoice.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move invoice from %s to %s", invoice.Status, next))
		}
		invoice.Status = next
		if next == enums.InvoiceStatusPaid && invoice.PaidAt == nil {
			paid := s.now().UTC()
			invoice.PaidAt = &paid
		}
		return nil
	})
}

// RecordPayment settles a sent or overdue invoice, or corrects the payment
// details of one already paid.
func (s *service) RecordPayment(ctx context.Context, ownerID string, invoiceID uuid.UUID, input PaymentInput) (*models.Invoice, error) {
	return s.mutate(ctx, ownerID, invoiceID, func(invoice *models.Invoice) error {
		if invoice.Status != enums.InvoiceStatusPaid {
			if !invoice.Status.CanTransitionTo(enums.InvoiceStatusPaid) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "only sent or overdue invoices can be paid")
			}
			invoice.Status = enums.InvoiceStatusPaid
		}

		paid := s.now().UTC()
		if input.PaidAt != nil {
			paid = input.PaidAt.UTC()
		} else if invoice.PaidAt != nil {
			paid = *invoice.PaidAt
		}
		invoice.PaidAt = &paid
		if input.PaymentMethod != nil {
			invoice.PaymentMethod = input.PaymentMethod
		}
		if input.PaymentReference != nil {
			invoice.PaymentReference = input.PaymentReference
		}
		return nil
	})
}

func (s *service) Delete(ctx context.Context, ownerID string, invoiceID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := repo.LockOwned(ctx, ownerID, invoiceID)
		if err != nil {
			return mapLoadError(err)
		}
		if invoice.Status == enums.InvoiceStatusPaid {
			return pkgerrors.New(pkgerrors.CodeCannotDelete, "paid invoices cannot be deleted")
		}
		if err := repo.Delete(ctx, invoice.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete invoice")
		}
		return nil
	})
}

func (s *service) Document(ctx context.Context, ownerID string, invoiceID uuid.UUID) (*Document, error) {
	var doc *Document
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := repo.FindOwned(ctx, ownerID, invoiceID)
		if err != nil {
			return mapLoadError(err)
		}
		if err := s.attachItems(ctx, repo, invoice); err != nil {
			return err
		}
		project, err := projects.FindOwned(ctx, tx, ownerID, invoice.ProjectID)
		if err != nil {
			return err
		}
		doc = &Document{Project: *project, Invoice: *invoice}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *service) mutate(ctx context.Context, ownerID string, invoiceID uuid.UUID, apply func(*models.Invoice) error) (*models.Invoice, error) {
	var updated *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := repo.LockOwned(ctx, ownerID, invoiceID)
		if err != nil {
			return mapLoadError(err)
		}
		if err := apply(invoice); err != nil {
			return err
		}
		if err := repo.Save(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}
		if err := s.attachItems(ctx, repo, invoice); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) attachItems(ctx context.Context, repo Repository, invoice *models.Invoice) error {
	items, err := repo.ListItems(ctx, invoice.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice items")
	}
	if items == nil {
		items = []models.InvoiceItem{}
	}
	invoice.Items = items
	return nil
}

func mapLoadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
