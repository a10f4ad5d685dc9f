package lending

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libratech/libratech-backend/pkg/db/models"
)

// Repository exposes persistence helpers for loan records and book stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	HasLoan(ctx context.Context, bookID uuid.UUID, borrowerEmail string) (bool, error)
	CreateLoan(ctx context.Context, loan *models.LoanRecord) error
	DeleteLoan(ctx context.Context, loanID, bookID uuid.UUID) (int64, error)
	DeleteLoansForBook(ctx context.Context, bookID uuid.UUID) (int64, error)
	ListLoans(ctx context.Context, borrowerEmail string) ([]models.LoanRecord, error)
	DecrementStock(ctx context.Context, bookID uuid.UUID) (stockResult, error)
	IncrementStock(ctx context.Context, bookID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a lending repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type stockResult struct {
	Found       bool
	Decremented bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) HasLoan(ctx context.Context, bookID uuid.UUID, borrowerEmail string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LoanRecord{}).
		Where("book_id = ? AND borrower_email = ?", bookID, borrowerEmail).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) CreateLoan(ctx context.Context, loan *models.LoanRecord) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *repositoryImpl) DeleteLoan(ctx context.Context, loanID, bookID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND book_id = ?", loanID, bookID).
		Delete(&models.LoanRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) DeleteLoansForBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&models.LoanRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) ListLoans(ctx context.Context, borrowerEmail string) ([]models.LoanRecord, error) {
	var loans []models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("borrower_email = ?", borrowerEmail).
		Order("created_at DESC").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}

// DecrementStock takes one copy off the shelf only while stock remains.
// The guarded UPDATE keeps concurrent borrows from driving quantity negative.
func (r *repositoryImpl) DecrementStock(ctx context.Context, bookID uuid.UUID) (stockResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND quantity > 0", bookID).
		UpdateColumn("quantity", gorm.Expr("quantity - 1"))
	if result.Error != nil {
		return stockResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return stockResult{Found: true, Decremented: true}, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Count(&count).Error; err != nil {
		return stockResult{}, err
	}
	return stockResult{Found: count > 0}, nil
}

func (r *repositoryImpl) IncrementStock(ctx context.Context, bookID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		UpdateColumn("quantity", gorm.Expr("quantity + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
