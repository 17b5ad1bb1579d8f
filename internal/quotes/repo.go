package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

// Repository exposes persistence helpers for customer quotes and labour.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.CustomerQuote) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerQuote, error)
	FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.CustomerQuote, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.CustomerQuote, error)
	Save(ctx context.Context, quote *models.CustomerQuote) error
	SaveTotals(ctx context.Context, quote *models.CustomerQuote) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountForOwnerBetween(ctx context.Context, ownerID string, from, to time.Time) (int64, error)
	NumberExists(ctx context.Context, ownerID, number string) (bool, error)

	ListLabour(ctx context.Context, quoteID uuid.UUID) ([]models.LabourItem, error)
	FindLabour(ctx context.Context, quoteID, labourID uuid.UUID) (*models.LabourItem, error)
	CreateLabour(ctx context.Context, item *models.LabourItem) error
	SaveLabour(ctx context.Context, item *models.LabourItem) error
	DeleteLabour(ctx context.Context, id uuid.UUID) error

	ListMaterials(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a quotes repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quote *models.CustomerQuote) error {
	return r.db.WithContext(ctx).Omit("LabourItems").Create(quote).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerQuote, error) {
	var quote models.CustomerQuote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.CustomerQuote, error) {
	var quote models.CustomerQuote
	err := r.db.WithContext(ctx).
		Select("customer_quotes.*").
		Joins("JOIN projects ON projects.id = customer_quotes.project_id").
		Where("customer_quotes.id = ? AND projects.owner_id = ?", id, ownerID).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.CustomerQuote, error) {
	var quotes []models.CustomerQuote
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&quotes).Error
	return quotes, err
}

func (r *repository) Save(ctx context.Context, quote *models.CustomerQuote) error {
	return r.db.WithContext(ctx).Omit("LabourItems").Save(quote).Error
}

func (r *repository) SaveTotals(ctx context.Context, quote *models.CustomerQuote) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomerQuote{}).
		Where("id = ?", quote.ID).
		Updates(map[string]any{
			"materials_total":    quote.MaterialsTotal,
			"labour_total":       quote.LabourTotal,
			"subtotal":           quote.Subtotal,
			"markup_amount":      quote.MarkupAmount,
			"contingency_amount": quote.ContingencyAmount,
			"net_total":          quote.NetTotal,
			"vat_amount":         quote.VATAmount,
			"grand_total":        quote.GrandTotal,
		}).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CustomerQuote{}, "id = ?", id).Error
}

func (r *repository) CountForOwnerBetween(ctx context.Context, ownerID string, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerQuote{}).
		Where("owner_id = ? AND created_at >= ? AND created_at < ?", ownerID, from, to).
		Count(&count).Error
	return count, err
}

func (r *repository) NumberExists(ctx context.Context, ownerID, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerQuote{}).
		Where("owner_id = ? AND quote_number = ?", ownerID, number).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListLabour(ctx context.Context, quoteID uuid.UUID) ([]models.LabourItem, error) {
	var items []models.LabourItem
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindLabour(ctx context.Context, quoteID, labourID uuid.UUID) (*models.LabourItem, error) {
	var item models.LabourItem
	if err := r.db.WithContext(ctx).Where("id = ? AND quote_id = ?", labourID, quoteID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateLabour(ctx context.Context, item *models.LabourItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) SaveLabour(ctx context.Context, item *models.LabourItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteLabour(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.LabourItem{}, "id = ?", id).Error
}

func (r *repository) ListMaterials(ctx context.Context, projectID uuid.UUID) ([]models.MaterialItem, error) {
	var items []models.MaterialItem
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}
