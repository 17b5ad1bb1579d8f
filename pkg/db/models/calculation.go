package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CalcTypeBrick marks brick calculators, which manage their own materials.
const CalcTypeBrick = "brick_calc"

// Calculation stores a calculator run. Inputs and outputs are opaque JSON documents.
type Calculation struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"column:project_id;type:uuid;not null;index" json:"projectId"`
	CalcType  string         `gorm:"column:calc_type;not null" json:"calcType"`
	Inputs    datatypes.JSON `gorm:"column:inputs;type:jsonb" json:"inputs"`
	Outputs   datatypes.JSON `gorm:"column:outputs;type:jsonb" json:"outputs"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (Calculation) TableName() string { return "calculations" }

func (c *Calculation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
