package calculations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

// Repository exposes persistence helpers for calculations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, calc *models.Calculation) error
	FindInProject(ctx context.Context, projectID, id uuid.UUID) (*models.Calculation, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Calculation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a calculations repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, calc *models.Calculation) error {
	return r.db.WithContext(ctx).Create(calc).Error
}

func (r *repository) FindInProject(ctx context.Context, projectID, id uuid.UUID) (*models.Calculation, error) {
	var calc models.Calculation
	if err := r.db.WithContext(ctx).Where("id = ? AND project_id = ?", id, projectID).First(&calc).Error; err != nil {
		return nil, err
	}
	return &calc, nil
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Calculation, error) {
	var calcs []models.Calculation
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&calcs).Error
	return calcs, err
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Calculation{}, "id = ?", id).Error
}
