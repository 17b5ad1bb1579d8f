package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/tradecert/tradecert-backend/pkg/db/types"
)

const DefaultMaterialUnit = "metres"

// MaterialItem is either entered by hand or derived from calculations. Derived
// rows carry the ids of every calculation that contributed to TotalLength.
type MaterialItem struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID         `gorm:"column:project_id;type:uuid;not null;index" json:"projectId"`
	Description   string            `gorm:"column:description;not null" json:"description"`
	CableType     *string           `gorm:"column:cable_type" json:"cableType,omitempty"`
	CableSize     *string           `gorm:"column:cable_size" json:"cableSize,omitempty"`
	TotalLength   decimal.Decimal   `gorm:"column:total_length;type:numeric(12,3);not null" json:"totalLength"`
	Unit          string            `gorm:"column:unit;not null" json:"unit"`
	Quantity      int               `gorm:"column:quantity;not null" json:"quantity"`
	ListPrice     *decimal.Decimal  `gorm:"column:list_price;type:numeric(12,2)" json:"listPrice,omitempty"`
	NettPrice     *decimal.Decimal  `gorm:"column:nett_price;type:numeric(12,2)" json:"nettPrice,omitempty"`
	ManuallyAdded bool              `gorm:"column:manually_added;not null" json:"manuallyAdded"`
	SourceCalcIDs dbtypes.UUIDArray `gorm:"column:source_calc_ids;type:uuid[]" json:"sourceCalcIds"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (MaterialItem) TableName() string { return "material_items" }

func (m *MaterialItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Unit == "" {
		m.Unit = DefaultMaterialUnit
	}
	if m.Quantity <= 0 {
		m.Quantity = 1
	}
	if m.SourceCalcIDs == nil {
		m.SourceCalcIDs = dbtypes.UUIDArray{}
	}
	return nil
}

// LinePrice is the price used for totals: nett when priced, else list, else zero.
func (m MaterialItem) LinePrice() decimal.Decimal {
	if m.NettPrice != nil {
		return *m.NettPrice
	}
	if m.ListPrice != nil {
		return *m.ListPrice
	}
	return decimal.Zero
}
