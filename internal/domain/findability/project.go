package findability

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is the identity a batch of transcripts is scored against.
type Project struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string                      `gorm:"column:name;not null" json:"name"`
	Slug        string                      `gorm:"column:slug;index" json:"slug"`
	Domain      string                      `gorm:"column:domain" json:"domain,omitempty"`
	OneLiner    string                      `gorm:"column:one_liner" json:"one_liner,omitempty"`
	Competitors datatypes.JSONSlice[string] `gorm:"column:competitors" json:"competitors"`
	Keywords    datatypes.JSONSlice[string] `gorm:"column:keywords" json:"keywords"`
	IsActive    bool                        `gorm:"column:is_active;not null;index" json:"is_active"`
	CreatedAt   time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
