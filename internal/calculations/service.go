package calculations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/materials"
	"github.com/tradecert/tradecert-backend/internal/projects"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

// Service stores calculator runs and keeps derived materials consistent.
type Service interface {
	Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*models.Calculation, error)
	List(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.Calculation, error)
	Get(ctx context.Context, ownerID string, projectID, calculationID uuid.UUID) (*models.Calculation, error)
	Delete(ctx context.Context, ownerID string, projectID, calculationID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput is a calculator result posted by the client.
type CreateInput struct {
	CalcType string          `json:"calcType" validate:"required,max=64"`
	Inputs   json.RawMessage `json:"inputs"`
	Outputs  json.RawMessage `json:"outputs"`
}

type service struct {
	repo         Repository
	tx           txRunner
	consolidator *materials.Consolidator
	recalculator materials.QuoteRecalculator
}

// NewService wires calculation dependencies.
func NewService(repo Repository, tx txRunner, consolidator *materials.Consolidator, recalculator materials.QuoteRecalculator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("calculations repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if consolidator == nil {
		return nil, fmt.Errorf("material consolidator required")
	}
	if recalculator == nil {
		return nil, fmt.Errorf("quote recalculator required")
	}
	return &service{repo: repo, tx: tx, consolidator: consolidator, recalculator: recalculator}, nil
}

func (s *service) Create(ctx context.Context, ownerID string, projectID uuid.UUID, input CreateInput) (*models.Calculation, error) {
	calcType := strings.TrimSpace(input.CalcType)
	if calcType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "calcType is required")
	}
	inputs, err := jsonObject(input.Inputs, "inputs")
	if err != nil {
		return nil, err
	}
	outputs, err := jsonObject(input.Outputs, "outputs")
	if err != nil {
		return nil, err
	}

	calc := &models.Calculation{
		ProjectID: projectID,
		CalcType:  calcType,
		Inputs:    inputs,
		Outputs:   outputs,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, calc); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create calculation")
		}
		changed, err := s.consolidator.OnCalculationCreated(ctx, tx, *calc)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.recalculator.RecalculateProject(ctx, tx, projectID)
	})
	if err != nil {
		return nil, err
	}
	return calc, nil
}

func (s *service) List(ctx context.Context, ownerID string, projectID uuid.UUID) ([]models.Calculation, error) {
	var calcs []models.Calculation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.FindOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		rows, err := s.repo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list calculations")
		}
		calcs = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	if calcs == nil {
		calcs = []models.Calculation{}
	}
	return calcs, nil
}

func (s *service) Get(ctx context.Context, ownerID string, projectID, calculationID uuid.UUID) (*models.Calculation, error) {
	var calc *models.Calculation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.FindOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		found, err := s.repo.WithTx(tx).FindInProject(ctx, projectID, calculationID)
		if err != nil {
			return mapCalcError(err)
		}
		calc = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return calc, nil
}

// Delete reverses the calculation's material contribution before removing it.
func (s *service) Delete(ctx context.Context, ownerID string, projectID, calculationID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		calc, err := repo.FindInProject(ctx, projectID, calculationID)
		if err != nil {
			return mapCalcError(err)
		}
		if err := repo.Delete(ctx, calc.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete calculation")
		}
		changed, err := s.consolidator.OnCalculationDeleted(ctx, tx, *calc)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.recalculator.RecalculateProject(ctx, tx, projectID)
	})
}

func jsonObject(raw json.RawMessage, field string) (datatypes.JSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return datatypes.JSON("{}"), nil
	}
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a JSON object")
	}
	return datatypes.JSON(trimmed), nil
}

func mapCalcError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "calculation not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load calculation")
}
