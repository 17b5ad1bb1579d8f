package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/enums"
)

type InvoiceItem struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID             `gorm:"column:invoice_id;type:uuid;not null;index" json:"invoiceId"`
	Kind        enums.InvoiceItemKind `gorm:"column:kind;not null" json:"kind"`
	Description string                `gorm:"column:description;not null" json:"description"`
	Quantity    decimal.Decimal       `gorm:"column:quantity;type:numeric(12,3);not null" json:"quantity"`
	Unit        string                `gorm:"column:unit;not null" json:"unit"`
	UnitPrice   decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unitPrice"`
	Total       decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Position    int                   `gorm:"column:position;not null" json:"position"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
