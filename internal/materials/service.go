package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/projects"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	dbtypes "github.com/tradecert/tradecert-backend/pkg/db/types"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

// QuoteRecalculator refreshes the cached totals of every quote on a project.
type QuoteRecalculator interface {
	RecalculateProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

// Service exposes the project's material list.
type Service interface {
	List(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.MaterialItem, error)
	Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*models.MaterialItem, error)
	Update(ctx context.Context, ownerID string, projectID, materialID uuid.UUID, input UpdateInput) (*models.MaterialItem, error)
	Delete(ctx context.Context, ownerID string, projectID, materialID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo         Repository
	tx           txRunner
	recalculator QuoteRecalculator
}

// CreateInput describes a manually entered material.
type CreateInput struct {
	Description string           `json:"description" validate:"required,max=300"`
	CableType   *string          `json:"cableType" validate:"omitempty,max=100"`
	CableSize   *string          `json:"cableSize" validate:"omitempty,max=50"`
	TotalLength *decimal.Decimal `json:"totalLength"`
	Unit        *string          `json:"unit" validate:"omitempty,max=30"`
	Quantity    *int             `json:"quantity" validate:"omitempty,min=1"`
	ListPrice   *decimal.Decimal `json:"listPrice"`
	NettPrice   *decimal.Decimal `json:"nettPrice"`
}

// UpdateInput carries optional material changes. Derived items accept only
// the two price fields.
type UpdateInput struct {
	Description *string          `json:"description" validate:"omitempty,min=1,max=300"`
	CableType   *string          `json:"cableType" validate:"omitempty,max=100"`
	CableSize   *string          `json:"cableSize" validate:"omitempty,max=50"`
	TotalLength *decimal.Decimal `json:"totalLength"`
	Unit        *string          `json:"unit" validate:"omitempty,max=30"`
	Quantity    *int             `json:"quantity" validate:"omitempty,min=1"`
	ListPrice   *decimal.Decimal `json:"listPrice"`
	NettPrice   *decimal.Decimal `json:"nettPrice"`
}

func (in UpdateInput) touchesNonPriceFields() bool {
	return in.Description != nil || in.CableType != nil || in.CableSize != nil ||
		in.TotalLength != nil || in.Unit != nil || in.Quantity != nil
}

// NewService wires material dependencies.
func NewService(repo Repository, tx txRunner, recalculator QuoteRecalculator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("materials repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recalculator == nil {
		return nil, fmt.Errorf("quote recalculator required")
	}
	return &service{repo: repo, tx: tx, recalculator: recalculator}, nil
}

func (s *service) List(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.MaterialItem, error) {
	var items []models.MaterialItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.FindOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		rows, err := s.repo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
		}
		items = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MaterialItem{}
	}
	return items, nil
}

func (s *service) Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*models.MaterialItem, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if err := validatePrices(input.ListPrice, input.NettPrice); err != nil {
		return nil, err
	}

	item := &models.MaterialItem{
		ProjectID:     projectID,
		Description:   description,
		CableType:     input.CableType,
		CableSize:     input.CableSize,
		ListPrice:     input.ListPrice,
		NettPrice:     input.NettPrice,
		ManuallyAdded: true,
		SourceCalcIDs: dbtypes.UUIDArray{},
	}
	if input.TotalLength != nil {
		if input.TotalLength.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "totalLength cannot be negative")
		}
		item.TotalLength = *input.TotalLength
	}
	if input.Unit != nil {
		item.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material")
		}
		return s.recalculator.RecalculateProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Update(ctx context.Context, ownerID string, projectID, materialID uuid.UUID, input UpdateInput) (*models.MaterialItem, error) {
	var updated *models.MaterialItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		item, err := repo.FindInProject(ctx, projectID, materialID)
		if err != nil {
			return mapItemError(err)
		}

		if !item.ManuallyAdded && input.touchesNonPriceFields() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "calculated materials only accept price changes; edit the source calculation instead")
		}

		if input.ListPrice != nil {
			item.ListPrice = input.ListPrice
		}
		if input.NettPrice != nil {
			item.NettPrice = input.NettPrice
		}
		if err := validatePrices(item.ListPrice, item.NettPrice); err != nil {
			return err
		}
		if input.Description != nil {
			item.Description = strings.TrimSpace(*input.Description)
		}
		if input.CableType != nil {
			item.CableType = input.CableType
		}
		if input.CableSize != nil {
			item.CableSize = input.CableSize
		}
		if input.TotalLength != nil {
			if input.TotalLength.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "totalLength cannot be negative")
			}
			item.TotalLength = *input.TotalLength
		}
		if input.Unit != nil {
			item.Unit = strings.TrimSpace(*input.Unit)
		}
		if input.Quantity != nil {
			item.Quantity = *input.Quantity
		}
		if item.Description == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "description cannot be blank")
		}

		if err := repo.Save(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material")
		}
		updated = item
		return s.recalculator.RecalculateProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, ownerID string, projectID, materialID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		item, err := repo.FindInProject(ctx, projectID, materialID)
		if err != nil {
			return mapItemError(err)
		}
		if !item.ManuallyAdded {
			return pkgerrors.New(pkgerrors.CodeCannotDelete, "this material was calculated; delete its source calculation to remove it")
		}
		if err := repo.Delete(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete material")
		}
		return s.recalculator.RecalculateProject(ctx, tx, projectID)
	})
}

func validatePrices(list, nett *decimal.Decimal) error {
	if list != nil && list.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "listPrice cannot be negative")
	}
	if nett != nil && nett.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "nettPrice cannot be negative")
	}
	return nil
}

func mapItemError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
}
