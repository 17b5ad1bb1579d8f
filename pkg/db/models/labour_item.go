package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LabourItem total is stored as entered and need not equal Days x DayRate.
type LabourItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	QuoteID     uuid.UUID       `gorm:"column:quote_id;type:uuid;not null;index" json:"quoteId"`
	Description string          `gorm:"column:description;not null" json:"description"`
	Days        decimal.Decimal `gorm:"column:days;type:numeric(8,2);not null" json:"days"`
	DayRate     decimal.Decimal `gorm:"column:day_rate;type:numeric(12,2);not null" json:"dayRate"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (LabourItem) TableName() string { return "labour_items" }

func (l *LabourItem) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
