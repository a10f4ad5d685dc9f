package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category tags books; read-only from the lending core's perspective.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"_id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Image     *string   `gorm:"column:image" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
