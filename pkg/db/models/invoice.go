package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/enums"
)

// Invoice is a frozen snapshot of a customer quote. Items never reference live rows.
type Invoice struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID          uuid.UUID           `gorm:"column:project_id;type:uuid;not null;index" json:"projectId"`
	OwnerID            string              `gorm:"column:owner_id;not null;index" json:"ownerId"`
	QuoteID            *uuid.UUID          `gorm:"column:quote_id;type:uuid" json:"quoteId,omitempty"`
	InvoiceNumber      string              `gorm:"column:invoice_number;not null;uniqueIndex" json:"invoiceNumber"`
	Status             enums.InvoiceStatus `gorm:"column:status;not null" json:"status"`
	PaymentTerms       int                 `gorm:"column:payment_terms;not null" json:"paymentTerms"`
	IssueDate          time.Time           `gorm:"column:issue_date;type:date;not null" json:"issueDate"`
	DueDate            time.Time           `gorm:"column:due_date;type:date;not null" json:"dueDate"`
	MarkupPercent      decimal.Decimal     `gorm:"column:markup_percent;type:numeric(5,2);not null" json:"markupPercent"`
	ContingencyPercent decimal.Decimal     `gorm:"column:contingency_percent;type:numeric(5,2);not null" json:"contingencyPercent"`
	VATPercent         decimal.Decimal     `gorm:"column:vat_percent;type:numeric(5,2);not null" json:"vatPercent"`
	MaterialsTotal     decimal.Decimal     `gorm:"column:materials_total;type:numeric(12,2);not null" json:"materialsTotal"`
	LabourTotal        decimal.Decimal     `gorm:"column:labour_total;type:numeric(12,2);not null" json:"labourTotal"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	MarkupAmount       decimal.Decimal     `gorm:"column:markup_amount;type:numeric(12,2);not null" json:"markupAmount"`
	ContingencyAmount  decimal.Decimal     `gorm:"column:contingency_amount;type:numeric(12,2);not null" json:"contingencyAmount"`
	NetTotal           decimal.Decimal     `gorm:"column:net_total;type:numeric(12,2);not null" json:"netTotal"`
	VATAmount          decimal.Decimal     `gorm:"column:vat_amount;type:numeric(12,2);not null" json:"vatAmount"`
	GrandTotal         decimal.Decimal     `gorm:"column:grand_total;type:numeric(12,2);not null" json:"grandTotal"`
	Notes              *string             `gorm:"column:notes" json:"notes,omitempty"`
	PaidAt             *time.Time          `gorm:"column:paid_at" json:"paidAt,omitempty"`
	PaymentMethod      *string             `gorm:"column:payment_method" json:"paymentMethod,omitempty"`
	PaymentReference   *string             `gorm:"column:payment_reference" json:"paymentReference,omitempty"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;references:ID" json:"items,omitempty"`
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = enums.InvoiceStatusDraft
	}
	return nil
}
