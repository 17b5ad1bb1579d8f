package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// Service manages the owner's projects.
type Service interface {
	Create(ctx context.Context, ownerID string, input CreateInput) (*models.Project, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, ownerID string, projectID uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, ownerID string, projectID uuid.UUID, input UpdateInput) (*models.Project, error)
	Delete(ctx context.Context, ownerID string, projectID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
}

// CreateInput is the payload for a new project.
type CreateInput struct {
	Name             string  `json:"name" validate:"required,max=200"`
	Address          string  `json:"address" validate:"required,max=500"`
	CustomerName     *string `json:"customerName" validate:"omitempty,max=200"`
	CustomerEmail    *string `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone    *string `json:"customerPhone" validate:"omitempty,max=50"`
	ContactEmail     *string `json:"contactEmail" validate:"omitempty,email"`
	InstallationDate *string `json:"installationDate" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateInput carries optional project field changes.
type UpdateInput struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address          *string `json:"address" validate:"omitempty,min=1,max=500"`
	CustomerName     *string `json:"customerName" validate:"omitempty,max=200"`
	CustomerEmail    *string `json:"customerEmail" validate:"omitempty,email"`
	CustomerPhone    *string `json:"customerPhone" validate:"omitempty,max=50"`
	ContactEmail     *string `json:"contactEmail" validate:"omitempty,email"`
	Status           *string `json:"status" validate:"omitempty,oneof=active completed archived"`
	InstallationDate *string `json:"installationDate" validate:"omitempty,datetime=2006-01-02"`
}

// ListParams configures pagination for projects.
type ListParams struct {
	OwnerID string
	Limit   int
	Cursor  string
}

// ListResult wraps returned projects and the cursor for the next page.
type ListResult struct {
	Items  []models.Project `json:"items"`
	Cursor string           `json:"cursor"`
}

// NewService wires project dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("projects repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, ownerID string, input CreateInput) (*models.Project, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner required")
	}
	installation, err := parseDate(input.InstallationDate)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		OwnerID:          ownerID,
		Name:             strings.TrimSpace(input.Name),
		Address:          strings.TrimSpace(input.Address),
		CustomerName:     input.CustomerName,
		CustomerEmail:    input.CustomerEmail,
		CustomerPhone:    input.CustomerPhone,
		ContactEmail:     input.ContactEmail,
		Status:           enums.ProjectStatusActive,
		InstallationDate: installation,
	}
	if project.Name == "" || project.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and address are required")
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create project")
	}
	return project, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "owner required")
	}

	query := listParams{OwnerID: params.OwnerID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.Decode(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list projects")
	}

	cursor := ""
	if next != nil {
		cursor = next.Encode()
	}
	if rows == nil {
		rows = []models.Project{}
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, ownerID string, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.repo.FindOwned(ctx, ownerID, projectID)
	return project, mapLoadError(err)
}

func (s *service) Update(ctx context.Context, ownerID string, projectID uuid.UUID, input UpdateInput) (*models.Project, error) {
	var updated *models.Project
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		project, err := repo.LockOwned(ctx, ownerID, projectID)
		if err != nil {
			return mapLoadError(err)
		}

		if input.Name != nil {
			project.Name = strings.TrimSpace(*input.Name)
		}
		if input.Address != nil {
			project.Address = strings.TrimSpace(*input.Address)
		}
		if input.CustomerName != nil {
			project.CustomerName = input.CustomerName
		}
		if input.CustomerEmail != nil {
			project.CustomerEmail = input.CustomerEmail
		}
		if input.CustomerPhone != nil {
			project.CustomerPhone = input.CustomerPhone
		}
		if input.ContactEmail != nil {
			project.ContactEmail = input.ContactEmail
		}
		if input.Status != nil {
			status, err := enums.ParseProjectStatus(*input.Status)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
			}
			project.Status = status
		}
		if input.InstallationDate != nil {
			installation, err := parseDate(input.InstallationDate)
			if err != nil {
				return err
			}
			project.InstallationDate = installation
		}
		if project.Name == "" || project.Address == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name and address cannot be blank")
		}

		if err := repo.Save(ctx, project); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update project")
		}
		updated = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, ownerID string, projectID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockOwned(ctx, ownerID, projectID); err != nil {
			return mapLoadError(err)
		}
		paid, err := repo.CountPaidInvoices(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count paid invoices")
		}
		if paid > 0 {
			return pkgerrors.New(pkgerrors.CodeCannotDelete, "project has paid invoices")
		}
		if err := repo.Delete(ctx, projectID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete project")
		}
		return nil
	})
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
