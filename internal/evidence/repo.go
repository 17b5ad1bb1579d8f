package evidence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

// Repository reads the project contents that go into a pack.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCalculations(ctx context.Context, projectID uuid.UUID) ([]models.Calculation, error)
	ListMaterials(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error)
	SetPackKey(ctx context.Context, projectID uuid.UUID, key string, generatedAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an evidence repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListCalculations(ctx context.Context, projectID uuid.UUID) ([]models.Calculation, error) {
	var rows []models.Calculation
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListMaterials(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error) {
	var rows []models.MaterialItem
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SetPackKey(ctx context.Context, projectID uuid.UUID, key string, generatedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]any{
			"evidence_pack_key":          key,
			"evidence_pack_generated_at": generatedAt,
		}).Error
}
