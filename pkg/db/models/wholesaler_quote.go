package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/enums"
)

// WholesalerQuote is a capability: whoever holds Token may read and price it
// until ExpiresAt. Token is never serialized.
type WholesalerQuote struct {
	ID              uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID       uuid.UUID                   `gorm:"column:project_id;type:uuid;not null;index" json:"projectId"`
	Token           string                      `gorm:"column:token;not null;uniqueIndex" json:"-"`
	WholesalerName  string                      `gorm:"column:wholesaler_name;not null" json:"wholesalerName"`
	WholesalerEmail string                      `gorm:"column:wholesaler_email;not null" json:"wholesalerEmail"`
	AccountNumber   *string                     `gorm:"column:account_number" json:"accountNumber,omitempty"`
	Status          enums.WholesalerQuoteStatus `gorm:"column:status;not null" json:"status"`
	DiscountPercent *decimal.Decimal            `gorm:"column:discount_percent;type:numeric(5,2)" json:"discountPercent,omitempty"`
	Notes           *string                     `gorm:"column:notes" json:"notes,omitempty"`
	SentAt          time.Time                   `gorm:"column:sent_at;not null" json:"sentAt"`
	ExpiresAt       time.Time                   `gorm:"column:expires_at;not null" json:"expiresAt"`
	PricedAt        *time.Time                  `gorm:"column:priced_at" json:"pricedAt,omitempty"`
	AppliedAt       *time.Time                  `gorm:"column:applied_at" json:"appliedAt,omitempty"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (WholesalerQuote) TableName() string { return "wholesaler_quotes" }

func (w *WholesalerQuote) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.Status == "" {
		w.Status = enums.WholesalerQuoteStatusSent
	}
	return nil
}

// IsExpired uses an inclusive boundary: at the exact expiry instant the link is dead.
func (w WholesalerQuote) IsExpired(now time.Time) bool {
	return !now.Before(w.ExpiresAt)
}
