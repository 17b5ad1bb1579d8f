package wholesaler

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

// Repository exposes persistence helpers for wholesaler quotes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.WholesalerQuote) error
	FindInProject(ctx context.Context, projectID, id uuid.UUID) (*models.WholesalerQuote, error)
	FindByToken(ctx context.Context, token string, lock bool) (*models.WholesalerQuote, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.WholesalerQuote, error)
	Save(ctx context.Context, quote *models.WholesalerQuote) error
	FindProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	ListMaterials(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error)
	CountMaterials(ctx context.Context, projectID uuid.UUID) (int64, error)
	SaveMaterial(ctx context.Context, item *models.MaterialItem) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wholesaler repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quote *models.WholesalerQuote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *repository) FindInProject(ctx context.Context, projectID, id uuid.UUID) (*models.WholesalerQuote, error) {
	var quote models.WholesalerQuote
	if err := r.db.WithContext(ctx).Where("id = ? AND project_id = ?", id, projectID).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) FindByToken(ctx context.Context, token string, lock bool) (*models.WholesalerQuote, error) {
	query := r.db.WithContext(ctx)
	if lock {
		query = db.ForUpdate(query)
	}
	var quote models.WholesalerQuote
	if err := query.Where("token = ?", token).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.WholesalerQuote, error) {
	var quotes []models.WholesalerQuote
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&quotes).Error
	return quotes, err
}

func (r *repository) Save(ctx context.Context, quote *models.WholesalerQuote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

func (r *repository) FindProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("id = ?", projectID).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *repository) ListMaterials(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error) {
	var items []models.MaterialItem
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) CountMaterials(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MaterialItem{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

func (r *repository) SaveMaterial(ctx context.Context, item *models.MaterialItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}
