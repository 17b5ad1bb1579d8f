package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/projects"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
)

const dateLayout = "2006-01-02"

var maxPercent = decimal.RequireFromString("999.99")

// Service manages customer quotes and their labour lines.
type Service interface {
	Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*models.CustomerQuote, error)
	ListByProject(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.CustomerQuote, error)
	Get(ctx context.Context, ownerID string, quoteID uuid.UUID) (*models.CustomerQuote, error)
	Update(ctx context.Context, ownerID string, quoteID uuid.UUID, input UpdateInput) (*models.CustomerQuote, error)
	Send(ctx context.Context, ownerID string, quoteID uuid.UUID) (*models.CustomerQuote, error)
	Delete(ctx context.Context, ownerID string, quoteID uuid.UUID) error

	AddLabour(ctx context.Context, ownerID string, quoteID uuid.UUID, input LabourInput) (*models.LabourItem, error)
	UpdateLabour(ctx context.Context, ownerID string, quoteID, labourID uuid.UUID, input LabourUpdateInput) (*models.LabourItem, error)
	DeleteLabour(ctx context.Context, ownerID string, quoteID, labourID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups quote service dependencies.
type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Recalculator *Recalculator
	NumberPrefix string
	DefaultVAT   decimal.Decimal
	Metrics      *metrics.DomainMetrics
	Now          func() time.Time
}

type service struct {
	repo         Repository
	tx           txRunner
	recalculator *Recalculator
	prefix       string
	defaultVAT   decimal.Decimal
	metrics      *metrics.DomainMetrics
	now          func() time.Time
}

// CreateInput carries the optional starting parameters of a quote.
type CreateInput struct {
	MarkupPercent      *decimal.Decimal `json:"markupPercent"`
	ContingencyPercent *decimal.Decimal `json:"contingencyPercent"`
	VATPercent         *decimal.Decimal `json:"vatPercent"`
	Notes              *string          `json:"notes" validate:"omitempty,max=2000"`
	ValidUntil         *string          `json:"validUntil" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateInput carries quote parameter changes.
type UpdateInput struct {
	MarkupPercent      *decimal.Decimal `json:"markupPercent"`
	ContingencyPercent *decimal.Decimal `json:"contingencyPercent"`
	VATPercent         *decimal.Decimal `json:"vatPercent"`
	Notes              *string          `json:"notes" validate:"omitempty,max=2000"`
	ValidUntil         *string          `json:"validUntil" validate:"omitempty,datetime=2006-01-02"`
}

// LabourInput describes a labour line. Total defaults to days x dayRate.
type LabourInput struct {
	Description string           `json:"description" validate:"required,max=300"`
	Days        decimal.Decimal  `json:"days"`
	DayRate     decimal.Decimal  `json:"dayRate"`
	Total       *decimal.Decimal `json:"total"`
}

// LabourUpdateInput carries labour line changes.
type LabourUpdateInput struct {
	Description *string          `json:"description" validate:"omitempty,min=1,max=300"`
	Days        *decimal.Decimal `json:"days"`
	DayRate     *decimal.Decimal `json:"dayRate"`
	Total       *decimal.Decimal `json:"total"`
}

// NewService wires quote dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Recalculator == nil {
		return nil, fmt.Errorf("recalculator required")
	}
	prefix := strings.TrimSpace(params.NumberPrefix)
	if prefix == "" {
		return nil, fmt.Errorf("quote number prefix required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		recalculator: params.Recalculator,
		prefix:       prefix,
		defaultVAT:   params.DefaultVAT,
		metrics:      params.Metrics,
		now:          now,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*models.CustomerQuote, error) {
	markup, err := percentOrDefault(input.MarkupPercent, decimal.Zero, "markupPercent")
	if err != nil {
		return nil, err
	}
	contingency, err := percentOrDefault(input.ContingencyPercent, decimal.Zero, "contingencyPercent")
	if err != nil {
		return nil, err
	}
	vat, err := percentOrDefault(input.VATPercent, s.defaultVAT, "vatPercent")
	if err != nil {
		return nil, err
	}
	validUntil, err := parseDate(input.ValidUntil)
	if err != nil {
		return nil, err
	}

	var created *models.CustomerQuote
	err = db.RetryOnUniqueViolation(ctx, numberAttempts, quoteNumberConstraint, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
				return err
			}
			repo := s.repo.WithTx(tx)
			now := s.now().UTC()

			number, err := nextNumber(ctx, repo, s.prefix, ownerID, now)
			if err != nil {
				return err
			}

			quote := &models.CustomerQuote{
				ProjectID:          projectID,
				OwnerID:            ownerID,
				QuoteNumber:        number,
				Status:             enums.QuoteStatusDraft,
				MarkupPercent:      markup,
				ContingencyPercent: contingency,
				VATPercent:         vat,
				Notes:              input.Notes,
				ValidUntil:         validUntil,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := repo.Create(ctx, quote); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
			}
			if err := s.recalculator.RecalculateQuote(ctx, tx, quote.ID); err != nil {
				return err
			}

			loaded, err := s.load(ctx, repo, quote.ID)
			if err != nil {
				return err
			}
			created = loaded
			return nil
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, quoteNumberConstraint) {
			s.metrics.IncNumberConflict("quote")
		}
		return nil, err
	}
	s.metrics.IncQuoteCreated()
	return created, nil
}

func (s *service) ListByProject(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.CustomerQuote, error) {
	var quotes []models.CustomerQuote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.FindOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		rows, err := s.repo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
		}
		quotes = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	if quotes == nil {
		quotes = []models.CustomerQuote{}
	}
	return quotes, nil
}

// Get recalculates before returning so the response never carries stale totals.
func (s *service) Get(ctx context.Context, ownerID string, quoteID uuid.UUID) (*models.CustomerQuote, error) {
	var result *models.CustomerQuote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.ownedQuote(ctx, repo, ownerID, quoteID); err != nil {
			return err
		}
		if err := s.recalculator.RecalculateQuote(ctx, tx, quoteID); err != nil {
			return err
		}
		loaded, err := s.load(ctx, repo, quoteID)
		if err != nil {
			return err
		}
		result = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, ownerID string, quoteID uuid.UUID, input UpdateInput) (*models.CustomerQuote, error) {
	var result *models.CustomerQuote
	err := s.withEditableQuote(ctx, ownerID, quoteID, func(tx *gorm.DB, repo Repository, quote *models.CustomerQuote) error {
		if input.MarkupPercent != nil {
			v, err := checkPercent(*input.MarkupPercent, "markupPercent")
			if err != nil {
				return err
			}
			quote.MarkupPercent = v
		}
		if input.ContingencyPercent != nil {
			v, err := checkPercent(*input.ContingencyPercent, "contingencyPercent")
			if err != nil {
				return err
			}
			quote.ContingencyPercent = v
		}
		if input.VATPercent != nil {
			v, err := checkPercent(*input.VATPercent, "vatPercent")
			if err != nil {
				return err
			}
			quote.VATPercent = v
		}
		if input.Notes != nil {
			quote.Notes = input.Notes
		}
		if input.ValidUntil != nil {
			validUntil, err := parseDate(input.ValidUntil)
			if err != nil {
				return err
			}
			quote.ValidUntil = validUntil
		}

		if err := repo.Save(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote")
		}
		if err := s.recalculator.RecalculateQuote(ctx, tx, quote.ID); err != nil {
			return err
		}
		loaded, err := s.load(ctx, repo, quote.ID)
		if err != nil {
			return err
		}
		result = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Send(ctx context.Context, ownerID string, quoteID uuid.UUID) (*models.CustomerQuote, error) {
	var result *models.CustomerQuote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.ownedQuote(ctx, repo, ownerID, quoteID)
		if err != nil {
			return err
		}
		if _, err := projects.LockOwned(ctx, tx, ownerID, quote.ProjectID); err != nil {
			return err
		}
		if quote.Status != enums.QuoteStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("quote is %s; only draft quotes can be sent", quote.Status))
		}

		now := s.now().UTC()
		quote.Status = enums.QuoteStatusSent
		quote.SentAt = &now
		if err := repo.Save(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send quote")
		}
		if err := s.recalculator.RecalculateQuote(ctx, tx, quote.ID); err != nil {
			return err
		}
		loaded, err := s.load(ctx, repo, quote.ID)
		if err != nil {
			return err
		}
		result = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, ownerID string, quoteID uuid.UUID) error {
	return s.withEditableQuote(ctx, ownerID, quoteID, func(tx *gorm.DB, repo Repository, quote *models.CustomerQuote) error {
		if err := repo.Delete(ctx, quote.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete quote")
		}
		return nil
	})
}

func (s *service) AddLabour(ctx context.Context, ownerID string, quoteID uuid.UUID, input LabourInput) (*models.LabourItem, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.Days.IsNegative() || input.DayRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days and dayRate cannot be negative")
	}
	total := input.Days.Mul(input.DayRate)
	if input.Total != nil {
		if input.Total.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "total cannot be negative")
		}
		total = *input.Total
	}

	item := &models.LabourItem{
		QuoteID:     quoteID,
		Description: description,
		Days:        input.Days,
		DayRate:     input.DayRate,
		Total:       total.Round(2),
	}
	err := s.withEditableQuote(ctx, ownerID, quoteID, func(tx *gorm.DB, repo Repository, quote *models.CustomerQuote) error {
		if err := repo.CreateLabour(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create labour item")
		}
		return s.recalculator.RecalculateQuote(ctx, tx, quote.ID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) UpdateLabour(ctx context.Context, ownerID string, quoteID, labourID uuid.UUID, input LabourUpdateInput) (*models.LabourItem, error) {
	var updated *models.LabourItem
	err := s.withEditableQuote(ctx, ownerID, quoteID, func(tx *gorm.DB, repo Repository, quote *models.CustomerQuote) error {
		item, err := repo.FindLabour(ctx, quote.ID, labourID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "labour item not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load labour item")
		}

		if input.Description != nil {
			item.Description = strings.TrimSpace(*input.Description)
			if item.Description == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "description cannot be blank")
			}
		}
		rateChanged := false
		if input.Days != nil {
			if input.Days.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "days cannot be negative")
			}
			item.Days = *input.Days
			rateChanged = true
		}
		if input.DayRate != nil {
			if input.DayRate.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "dayRate cannot be negative")
			}
			item.DayRate = *input.DayRate
			rateChanged = true
		}
		switch {
		case input.Total != nil:
			if input.Total.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "total cannot be negative")
			}
			item.Total = input.Total.Round(2)
		case rateChanged:
			item.Total = item.Days.Mul(item.DayRate).Round(2)
		}

		if err := repo.SaveLabour(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update labour item")
		}
		updated = item
		return s.recalculator.RecalculateQuote(ctx, tx, quote.ID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) DeleteLabour(ctx context.Context, ownerID string, quoteID, labourID uuid.UUID) error {
	return s.withEditableQuote(ctx, ownerID, quoteID, func(tx *gorm.DB, repo Repository, quote *models.CustomerQuote) error {
		item, err := repo.FindLabour(ctx, quote.ID, labourID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "labour item not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load labour item")
		}
		if err := repo.DeleteLabour(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete labour item")
		}
		return s.recalculator.RecalculateQuote(ctx, tx, quote.ID)
	})
}

// withEditableQuote loads an owned quote, locks its project and rejects
// converted quotes, whose invoice already froze them.
func (s *service) withEditableQuote(ctx context.Context, ownerID string, quoteID uuid.UUID, fn func(tx *gorm.DB, repo Repository, quote *models.CustomerQuote) error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.ownedQuote(ctx, repo, ownerID, quoteID)
		if err != nil {
			return err
		}
		if _, err := projects.LockOwned(ctx, tx, ownerID, quote.ProjectID); err != nil {
			return err
		}
		if quote.Status == enums.QuoteStatusConverted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quote has been converted to an invoice")
		}
		return fn(tx, repo, quote)
	})
}

func (s *service) ownedQuote(ctx context.Context, repo Repository, ownerID string, quoteID uuid.UUID) (*models.CustomerQuote, error) {
	quote, err := repo.FindOwned(ctx, ownerID, quoteID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return quote, nil
}

func (s *service) load(ctx context.Context, repo Repository, quoteID uuid.UUID) (*models.CustomerQuote, error) {
	quote, err := repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quote")
	}
	labour, err := repo.ListLabour(ctx, quoteID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load labour items")
	}
	if labour == nil {
		labour = []models.LabourItem{}
	}
	quote.LabourItems = labour
	return quote, nil
}

func percentOrDefault(value *decimal.Decimal, fallback decimal.Decimal, field string) (decimal.Decimal, error) {
	if value == nil {
		return fallback, nil
	}
	return checkPercent(*value, field)
}

func checkPercent(value decimal.Decimal, field string) (decimal.Decimal, error) {
	if value.IsNegative() || value.GreaterThan(maxPercent) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, field+" must be between 0 and 999.99")
	}
	return value, nil
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "dates must be YYYY-MM-DD")
	}
	return &parsed, nil
}
