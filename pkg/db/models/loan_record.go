package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanRecord links one book to one borrower for the duration of a loan.
// It is created on borrow and deleted on return, never updated. The
// composite unique index is the duplicate-loan guard: the lending
// service's pre-check is a fast path only.
type LoanRecord struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"_id"`
	BookID        uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex:idx_loan_records_book_borrower" json:"bookId"`
	BorrowerEmail string    `gorm:"column:borrower_email;not null;uniqueIndex:idx_loan_records_book_borrower" json:"email"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (l *LoanRecord) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
