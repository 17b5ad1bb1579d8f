package materials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

// Repository exposes persistence helpers for material items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error)
	FindInProject(ctx context.Context, projectID, id uuid.UUID) (*models.MaterialItem, error)
	FindAuto(ctx context.Context, projectID uuid.UUID, cableType, cableSize string) (*models.MaterialItem, error)
	ListAutoReferencing(ctx context.Context, projectID, calcID uuid.UUID) ([]models.MaterialItem, error)
	Create(ctx context.Context, item *models.MaterialItem) error
	Save(ctx context.Context, item *models.MaterialItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindCalculations(ctx context.Context, ids []uuid.UUID) ([]models.Calculation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a materials repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error) {
	var items []models.MaterialItem
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindInProject(ctx context.Context, projectID, id uuid.UUID) (*models.MaterialItem, error) {
	var item models.MaterialItem
	if err := r.db.WithContext(ctx).Where("id = ? AND project_id = ?", id, projectID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindAuto(ctx context.Context, projectID uuid.UUID, cableType, cableSize string) (*models.MaterialItem, error) {
	var item models.MaterialItem
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND manually_added = ? AND cable_type = ? AND cable_size = ?", projectID, false, cableType, cableSize).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListAutoReferencing returns the derived items of the project whose provenance contains calcID.
func (r *repository) ListAutoReferencing(ctx context.Context, projectID, calcID uuid.UUID) ([]models.MaterialItem, error) {
	var items []models.MaterialItem
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND manually_added = ?", projectID, false).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, item := range items {
		if item.SourceCalcIDs.Contains(calcID) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, item *models.MaterialItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Save(ctx context.Context, item *models.MaterialItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.MaterialItem{}, "id = ?", id).Error
}

func (r *repository) FindCalculations(ctx context.Context, ids []uuid.UUID) ([]models.Calculation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var calcs []models.Calculation
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&calcs).Error
	return calcs, err
}
