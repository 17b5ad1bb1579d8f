package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/enums"
)

// Project is the lock boundary for every quote, material and invoice mutation.
type Project struct {
	ID                      uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID                 string              `gorm:"column:owner_id;not null;index" json:"ownerId"`
	Name                    string              `gorm:"column:name;not null" json:"name"`
	Address                 string              `gorm:"column:address;not null" json:"address"`
	CustomerName            *string             `gorm:"column:customer_name" json:"customerName,omitempty"`
	CustomerEmail           *string             `gorm:"column:customer_email" json:"customerEmail,omitempty"`
	CustomerPhone           *string             `gorm:"column:customer_phone" json:"customerPhone,omitempty"`
	ContactEmail            *string             `gorm:"column:contact_email" json:"contactEmail,omitempty"`
	Status                  enums.ProjectStatus `gorm:"column:status;not null" json:"status"`
	InstallationDate        *time.Time          `gorm:"column:installation_date;type:date" json:"installationDate,omitempty"`
	EvidencePackKey         *string             `gorm:"column:evidence_pack_key" json:"evidencePackKey,omitempty"`
	EvidencePackGeneratedAt *time.Time          `gorm:"column:evidence_pack_generated_at" json:"evidencePackGeneratedAt,omitempty"`
	CreatedAt               time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = enums.ProjectStatusActive
	}
	return nil
}
