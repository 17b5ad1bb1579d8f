package projects

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	"github.com/tradecert/tradecert-backend/pkg/pagination"
)

// Repository exposes persistence helpers for projects.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, project *models.Project) error
	FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Project, error)
	LockOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, params listParams) ([]models.Project, *pagination.Cursor, error)
	Save(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountPaidInvoices(ctx context.Context, projectID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a projects repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type listParams struct {
	OwnerID string
	Limit   int
	Cursor  *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *repository) FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// LockOwned is FindOwned under a row lock; the caller must be inside a transaction.
func (r *repository) LockOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Project, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{}).Where("owner_id = ?", params.OwnerID)
	var rows []models.Project
	if err := query.Scopes(pagination.Scope(params.Cursor, params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(p models.Project) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}

func (r *repository) Save(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id).Error
}

// CountPaidInvoices counts invoices that would be lost by a cascading project delete.
func (r *repository) CountPaidInvoices(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("project_id = ? AND status = ?", projectID, enums.InvoiceStatusPaid).
		Count(&n).Error
	return n, err
}
