package wholesaler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
)

// Gate serves the two anonymous endpoints. The token is the only credential.
type Gate interface {
	Read(ctx context.Context, token string) (*PublicView, error)
	Price(ctx context.Context, token string, input PriceInput) (*PublicView, error)
}

// PublicView is everything a wholesaler may see. It deliberately has no
// price, token or customer contact fields.
type PublicView struct {
	ProjectName     string                      `json:"projectName"`
	ProjectAddress  string                      `json:"projectAddress"`
	WholesalerName  string                      `json:"wholesalerName"`
	AccountNumber   *string                     `json:"accountNumber,omitempty"`
	Status          enums.WholesalerQuoteStatus `json:"status"`
	DiscountPercent *decimal.Decimal            `json:"discountPercent,omitempty"`
	Notes           *string                     `json:"notes,omitempty"`
	ExpiresAt       time.Time                   `json:"expiresAt"`
	PricedAt        *time.Time                  `json:"pricedAt,omitempty"`
	Materials       []PublicMaterial            `json:"materials"`
}

// PublicMaterial is a material line without prices.
type PublicMaterial struct {
	Description string          `json:"description"`
	CableType   *string         `json:"cableType,omitempty"`
	CableSize   *string         `json:"cableSize,omitempty"`
	TotalLength decimal.Decimal `json:"totalLength"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
}

// PriceInput is the wholesaler's response.
type PriceInput struct {
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Notes           *string         `json:"notes" validate:"omitempty,max=2000"`
}

type gate struct {
	repo     Repository
	tx       txRunner
	notifier Notifier
	metrics  *metrics.DomainMetrics
	now      func() time.Time
}

// GateParams groups public gate dependencies.
type GateParams struct {
	Repo     Repository
	Tx       txRunner
	Notifier Notifier
	Metrics  *metrics.DomainMetrics
	Now      func() time.Time
}

// NewGate wires the public token gate.
func NewGate(params GateParams) (Gate, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wholesaler repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &gate{repo: params.Repo, tx: params.Tx, notifier: params.Notifier, metrics: params.Metrics, now: now}, nil
}

func (g *gate) Read(ctx context.Context, token string) (*PublicView, error) {
	var view *PublicView
	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)
		quote, err := g.resolve(ctx, repo, token, false)
		if err != nil {
			return err
		}
		built, _, err := g.project(ctx, repo, quote)
		if err != nil {
			return err
		}
		view = built
		return nil
	})
	g.metrics.ObserveGate("read", outcome(err))
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (g *gate) Price(ctx context.Context, token string, input PriceInput) (*PublicView, error) {
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(hundred) {
		g.metrics.ObserveGate("price", "invalid")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discountPercent must be between 0 and 100")
	}

	var (
		view    *PublicView
		project *models.Project
		priced  *models.WholesalerQuote
	)
	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)
		quote, err := g.resolve(ctx, repo, token, true)
		if err != nil {
			return err
		}

		now := g.now().UTC()
		discount := input.DiscountPercent
		quote.Status = enums.WholesalerQuoteStatusPriced
		quote.DiscountPercent = &discount
		quote.Notes = input.Notes
		quote.PricedAt = &now
		if err := repo.Save(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store pricing")
		}

		built, owner, err := g.project(ctx, repo, quote)
		if err != nil {
			return err
		}
		view, project, priced = built, owner, quote
		return nil
	})
	g.metrics.ObserveGate("price", outcome(err))
	if err != nil {
		return nil, err
	}

	g.notifier.QuotePriced(ctx, *project, *priced)
	return view, nil
}

// resolve finds the quote for token and enforces expiry. An expired link is
// Gone, not missing, so the caller can tell the wholesaler to ask again.
func (g *gate) resolve(ctx context.Context, repo Repository, token string, lock bool) (*models.WholesalerQuote, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	quote, err := repo.FindByToken(ctx, token, lock)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wholesaler quote")
	}
	if quote.IsExpired(g.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "this pricing link has expired")
	}
	return quote, nil
}

func (g *gate) project(ctx context.Context, repo Repository, quote *models.WholesalerQuote) (*PublicView, *models.Project, error) {
	project, err := repo.FindProject(ctx, quote.ProjectID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	items, err := repo.ListMaterials(ctx, quote.ProjectID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load materials")
	}

	materials := make([]PublicMaterial, 0, len(items))
	for _, item := range items {
		materials = append(materials, PublicMaterial{
			Description: item.Description,
			CableType:   item.CableType,
			CableSize:   item.CableSize,
			TotalLength: item.TotalLength,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
		})
	}

	return &PublicView{
		ProjectName:     project.Name,
		ProjectAddress:  project.Address,
		WholesalerName:  quote.WholesalerName,
		AccountNumber:   quote.AccountNumber,
		Status:          quote.Status,
		DiscountPercent: quote.DiscountPercent,
		Notes:           quote.Notes,
		ExpiresAt:       quote.ExpiresAt,
		PricedAt:        quote.PricedAt,
		Materials:       materials,
	}, project, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return "not_found"
	case pkgerrors.IsCode(err, pkgerrors.CodeExpired):
		return "expired"
	default:
		return "error"
	}
}
