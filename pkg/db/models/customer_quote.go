package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/enums"
)

// CustomerQuote persists the totals cascade as a cache of its inputs.
type CustomerQuote struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID          uuid.UUID         `gorm:"column:project_id;type:uuid;not null;index" json:"projectId"`
	OwnerID            string            `gorm:"column:owner_id;not null" json:"ownerId"`
	QuoteNumber        string            `gorm:"column:quote_number;not null" json:"quoteNumber"`
	Status             enums.QuoteStatus `gorm:"column:status;not null" json:"status"`
	MarkupPercent      decimal.Decimal   `gorm:"column:markup_percent;type:numeric(5,2);not null" json:"markupPercent"`
	ContingencyPercent decimal.Decimal   `gorm:"column:contingency_percent;type:numeric(5,2);not null" json:"contingencyPercent"`
	VATPercent         decimal.Decimal   `gorm:"column:vat_percent;type:numeric(5,2);not null" json:"vatPercent"`
	MaterialsTotal     decimal.Decimal   `gorm:"column:materials_total;type:numeric(12,2);not null" json:"materialsTotal"`
	LabourTotal        decimal.Decimal   `gorm:"column:labour_total;type:numeric(12,2);not null" json:"labourTotal"`
	Subtotal           decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	MarkupAmount       decimal.Decimal   `gorm:"column:markup_amount;type:numeric(12,2);not null" json:"markupAmount"`
	ContingencyAmount  decimal.Decimal   `gorm:"column:contingency_amount;type:numeric(12,2);not null" json:"contingencyAmount"`
	NetTotal           decimal.Decimal   `gorm:"column:net_total;type:numeric(12,2);not null" json:"netTotal"`
	VATAmount          decimal.Decimal   `gorm:"column:vat_amount;type:numeric(12,2);not null" json:"vatAmount"`
	GrandTotal         decimal.Decimal   `gorm:"column:grand_total;type:numeric(12,2);not null" json:"grandTotal"`
	Notes              *string           `gorm:"column:notes" json:"notes,omitempty"`
	ValidUntil         *time.Time        `gorm:"column:valid_until;type:date" json:"validUntil,omitempty"`
	SentAt             *time.Time        `gorm:"column:sent_at" json:"sentAt,omitempty"`
	ConvertedAt        *time.Time        `gorm:"column:converted_at" json:"convertedAt,omitempty"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	LabourItems []LabourItem `gorm:"foreignKey:QuoteID;references:ID" json:"labourItems,omitempty"`
}

func (CustomerQuote) TableName() string { return "customer_quotes" }

func (q *CustomerQuote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.Status == "" {
		q.Status = enums.QuoteStatusDraft
	}
	return nil
}
