package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libratech/libratech-backend/pkg/types"
)

// Book is the canonical catalog record. Quantity counts the copies
// currently available for loan and is only ever mutated by the lending
// package; the CHECK constraint backstops the non-negative invariant.
type Book struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"_id"`
	Title       string           `gorm:"column:title;not null" json:"name"`
	Author      string           `gorm:"column:author;not null" json:"author"`
	Category    string           `gorm:"column:category;not null;index" json:"category"`
	Quantity    int64            `gorm:"column:quantity;not null;default:0;check:chk_books_quantity,quantity >= 0" json:"quantity"`
	Rating      *float64         `gorm:"column:rating" json:"rating,omitempty"`
	Image       *string          `gorm:"column:image" json:"image,omitempty"`
	Description *string          `gorm:"column:description" json:"description,omitempty"`
	Attributes  types.Attributes `gorm:"column:attributes;type:jsonb" json:"attributes,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// BeforeCreate assigns the ID when the caller did not, so inserts work
// on drivers without a server-side uuid default.
func (b *Book) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
