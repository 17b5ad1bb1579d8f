package wholesaler

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

const (
	tokenConstraint = "ux_wholesaler_quotes_token"
	tokenAttempts   = 3
)

var hundred = decimal.NewFromInt(100)

// Notifier delivers the best-effort wholesaler emails.
type Notifier interface {
	WholesalerRequested(ctx context.Context, project models.Project, quote models.WholesalerQuote, token string)
	QuotePriced(ctx context.Context, project models.Project, quote models.WholesalerQuote)
	PublicLink(token string) string
}

// QuoteRecalculator refreshes the cached totals of every quote on a project.
type QuoteRecalculator interface {
	RecalculateProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

// Service is the contractor-facing side of wholesaler quotes.
type Service interface {
	Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*CreateResult, error)
	List(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.WholesalerQuote, error)
	ApplyPricing(ctx context.Context, ownerID string, projectID, wholesalerQuoteID uuid.UUID) (*ApplyResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput names the wholesaler to ask for prices.
type CreateInput struct {
	WholesalerName  string  `json:"wholesalerName" validate:"required,max=200"`
	WholesalerEmail string  `json:"wholesalerEmail" validate:"required,email"`
	AccountNumber   *string `json:"accountNumber" validate:"omitempty,max=100"`
}

// CreateResult is the only response that ever carries the token.
type CreateResult struct {
	Quote models.WholesalerQuote `json:"wholesalerQuote"`
	Token string                 `json:"token"`
	Link  string                 `json:"link"`
}

// ApplyResult reports how many materials received a nett price.
type ApplyResult struct {
	Quote          models.WholesalerQuote `json:"wholesalerQuote"`
	UpdatedCount   int                    `json:"updatedCount"`
	SkippedNoPrice int                    `json:"skippedNoListPrice"`
}

// ServiceParams groups wholesaler service dependencies.
type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Recalculator QuoteRecalculator
	Notifier     Notifier
	Metrics      *metrics.DomainMetrics
	LinkTTL      time.Duration
	Now          func() time.Time
}

type service struct {
	repo         Repository
	tx           txRunner
	recalculator QuoteRecalculator
	notifier     Notifier
	metrics      *metrics.DomainMetrics
	ttl          time.Duration
	now          func() time.Time
}

// NewService wires wholesaler dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wholesaler repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Recalculator == nil {
		return nil, fmt.Errorf("quote recalculator required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	ttl := params.LinkTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		recalculator: params.Recalculator,
		notifier:     params.Notifier,
		metrics:      params.Metrics,
		ttl:          ttl,
		now:          now,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*CreateResult, error) {
	name := strings.TrimSpace(input.WholesalerName)
	email := strings.TrimSpace(input.WholesalerEmail)
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wholesalerName and wholesalerEmail are required")
	}

	var (
		project *models.Project
		quote   *models.WholesalerQuote
		token   string
	)
	err := db.RetryOnUniqueViolation(ctx, tokenAttempts, tokenConstraint, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			locked, err := projects.LockOwned(ctx, tx, ownerID, projectID)
			if err != nil {
				return err
			}
			repo := s.repo.WithTx(tx)

			count, err := repo.CountMaterials(ctx, projectID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count materials")
			}
			if count == 0 {
				return pkgerrors.New(pkgerrors.CodeNoMaterials, "add materials to the project before requesting wholesaler pricing")
			}

			generated, err := newToken()
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate link token")
			}

			now := s.now().UTC()
			created := &models.WholesalerQuote{
				ProjectID:       projectID,
				Token:           generated,
				WholesalerName:  name,
				WholesalerEmail: email,
				AccountNumber:   input.AccountNumber,
				Status:          enums.WholesalerQuoteStatusSent,
				SentAt:          now,
				ExpiresAt:       now.Add(s.ttl),
			}
			if err := repo.Create(ctx, created); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wholesaler quote")
			}
			project, quote, token = locked, created, generated
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWholesalerRequest()
	s.notifier.WholesalerRequested(ctx, *project, *quote, token)

	return &CreateResult{
		Quote: *quote,
		Token: token,
		Link:  s.notifier.PublicLink(token),
	}, nil
}

func (s *service) List(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.WholesalerQuote, error) {
	var quotes []models.WholesalerQuote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.FindOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		rows, err := s.repo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wholesaler quotes")
		}
		quotes = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	if quotes == nil {
		quotes = []models.WholesalerQuote{}
	}
	return quotes, nil
}

// ApplyPricing turns the wholesaler's discount into nett prices on every
// material with a list price, then refreshes the project's quotes.
func (s *service) ApplyPricing(ctx context.Context, ownerID string, projectID, wholesalerQuoteID uuid.UUID) (*ApplyResult, error) {
	var result *ApplyResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)

		quote, err := repo.FindInProject(ctx, projectID, wholesalerQuoteID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wholesaler quote not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wholesaler quote")
		}
		if quote.Status != enums.WholesalerQuoteStatusPriced || quote.DiscountPercent == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "wholesaler has not priced this quote yet")
		}

		items, err := repo.ListMaterials(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
		}

		factor := hundred.Sub(*quote.DiscountPercent).Div(hundred)
		applied := &ApplyResult{}
		for i := range items {
			item := &items[i]
			if item.ListPrice == nil {
				applied.SkippedNoPrice++
				continue
			}
			nett := item.ListPrice.Mul(factor).Round(2)
			item.NettPrice = &nett
			if err := repo.SaveMaterial(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply nett price")
			}
			applied.UpdatedCount++
		}

		now := s.now().UTC()
		quote.AppliedAt = &now
		if err := repo.Save(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark wholesaler quote applied")
		}
		if err := s.recalculator.RecalculateProject(ctx, tx, projectID); err != nil {
			return err
		}

		applied.Quote = *quote
		result = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
