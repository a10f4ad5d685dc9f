package lending

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libratech/libratech-backend/pkg/db"
	"github.com/libratech/libratech-backend/pkg/db/models"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/metrics"
)

// BorrowOutcome is the business result of a borrow attempt. Exhausted stock
// and repeat borrows are ordinary answers, not errors.
type BorrowOutcome string

const (
	OutcomeBorrowed        BorrowOutcome = "success"
	OutcomeAlreadyBorrowed BorrowOutcome = "already-borrowed"
	OutcomeNoQuantity      BorrowOutcome = "no-quantity"
)

var (
	errAlreadyBorrowed = errors.New("loan already exists")
	errNoQuantity      = errors.New("no stock available")
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the circulation desk operations.
type Service interface {
	Borrow(ctx context.Context, bookID uuid.UUID, borrowerEmail string) (BorrowOutcome, error)
	Return(ctx context.Context, loanID, bookID uuid.UUID) error
	ListLoans(ctx context.Context, borrowerEmail string) ([]models.LoanRecord, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.LendingMetrics
}

// NewService wires lending dependencies.
func NewService(repo Repository, tx txRunner, lm *metrics.LendingMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "lending repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: lm}, nil
}

// Borrow hands one copy to the borrower. The stock decrement and the loan
// insert commit together, so a duplicate borrow rolls the decrement back.
func (s *service) Borrow(ctx context.Context, bookID uuid.UUID, borrowerEmail string) (BorrowOutcome, error) {
	email := normalizeEmail(borrowerEmail)
	if bookID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "error")
	}
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "error")
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveDuration("borrow", time.Since(start))
	}()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Fast path: a visible loan means no work to undo.
		exists, err := repo.HasLoan(ctx, bookID, email)
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyBorrowed
		}

		stock, err := repo.DecrementStock(ctx, bookID)
		if err != nil {
			return err
		}
		if !stock.Found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "not-found")
		}
		if !stock.Decremented {
			return errNoQuantity
		}

		loan := &models.LoanRecord{BookID: bookID, BorrowerEmail: email}
		if err := repo.CreateLoan(ctx, loan); err != nil {
			// A racing borrow won the unique index; the rollback
			// puts the copy back on the shelf.
			if db.IsUniqueViolation(err, "idx_loan_records_book_borrower") {
				return errAlreadyBorrowed
			}
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		s.metrics.IncBorrowOutcome(string(OutcomeBorrowed))
		return OutcomeBorrowed, nil
	case errors.Is(err, errAlreadyBorrowed):
		s.metrics.IncBorrowOutcome(string(OutcomeAlreadyBorrowed))
		return OutcomeAlreadyBorrowed, nil
	case errors.Is(err, errNoQuantity):
		s.metrics.IncBorrowOutcome(string(OutcomeNoQuantity))
		return OutcomeNoQuantity, nil
	default:
		s.metrics.IncBorrowOutcome("error")
		if typed := pkgerrors.As(err); typed != nil {
			return "", typed
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "borrow book")
	}
}

// Return puts the copy back. Returning a loan that no longer exists is a
// no-op so retries and double-clicks stay safe.
func (s *service) Return(ctx context.Context, loanID, bookID uuid.UUID) error {
	if loanID == uuid.Nil || bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "error")
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveDuration("return", time.Since(start))
	}()

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		deleted, err := repo.DeleteLoan(ctx, loanID, bookID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			// Already returned, or never existed. Either way the
			// shelf count must not move.
			return nil
		}

		if _, err := repo.IncrementStock(ctx, bookID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.metrics.IncReturnOutcome("error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return book")
	}
	s.metrics.IncReturnOutcome("returned")
	return nil
}

func (s *service) ListLoans(ctx context.Context, borrowerEmail string) ([]models.LoanRecord, error) {
	email := normalizeEmail(borrowerEmail)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "error")
	}
	loans, err := s.repo.ListLoans(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loans")
	}
	return loans, nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
