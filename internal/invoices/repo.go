package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	"github.com/tradecert/tradecert-backend/pkg/pagination"
)

// Repository exposes persistence helpers for invoices and their snapshot lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) error
	FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Invoice, error)
	LockOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, params listParams) ([]models.Invoice, *pagination.Cursor, error)
	ListItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceItem, error)
	Save(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	ListOverdueCandidates(ctx context.Context, today time.Time, limit int) ([]models.Invoice, error)
	MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error)
}

type listParams struct {
	OwnerID   string
	ProjectID *uuid.UUID
	Status    *enums.InvoiceStatus
	Limit     int
	Cursor    *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoices repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice, items []models.InvoiceItem) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(invoice).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].InvoiceID = invoice.ID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) LockOwned(ctx context.Context, ownerID string, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Invoice, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("owner_id = ?", params.OwnerID)
	if params.ProjectID != nil {
		query = query.Where("project_id = ?", *params.ProjectID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var rows []models.Invoice
	if err := query.Scopes(pagination.Scope(params.Cursor, params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(p models.Invoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}

func (r *repository) ListItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) Save(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(invoice).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Invoice{}, "id = ?", id).Error
}

// LastNumberWithPrefix returns the highest invoice number starting with
// prefix, or "" when there is none. Longer numbers sort first so a sequence
// past 9999 keeps counting up.
func (r *repository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Select("invoice_number").
		Where("invoice_number LIKE ?", prefix+"%").
		Order("LENGTH(invoice_number) DESC, invoice_number DESC").
		Limit(1).
		Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return invoice.InvoiceNumber, nil
}

func (r *repository) ListOverdueCandidates(ctx context.Context, today time.Time, limit int) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", enums.InvoiceStatusSent, today).
		Order("due_date ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkOverdue flips a sent invoice to overdue. It reports false when the
// invoice changed status since it was listed.
func (r *repository) MarkOverdue(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, enums.InvoiceStatusSent).
		Update("status", enums.InvoiceStatusOverdue)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
