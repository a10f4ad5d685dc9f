package lending

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Purger removes the loans tied to a book when the catalog retires it.
type Purger struct {
	repo Repository
}

func NewPurger(repo Repository) *Purger {
	return &Purger{repo: repo}
}

func (p *Purger) PurgeForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (int64, error) {
	return p.repo.WithTx(tx).DeleteLoansForBook(ctx, bookID)
}
