package lending

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/libratech/libratech-backend/pkg/db"
	"github.com/libratech/libratech-backend/pkg/db/models"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
)

func newTestClient(t *testing.T) *db.Client {
	t.Helper()
	dsn := "file:lending_" + uuid.NewString() + "?mode=memory&cache=shared"
	client, err := db.NewSQLite(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := client.DB().AutoMigrate(&models.Book{}, &models.LoanRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("extract sql.DB: %v", err)
	}
	// One connection keeps concurrent sqlite transactions serialized.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { client.Close() })
	return client
}

func newTestService(t *testing.T, client *db.Client) Service {
	t.Helper()
	svc, err := NewService(NewRepository(client.DB()), client, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedBook(t *testing.T, client *db.Client, quantity int64) uuid.UUID {
	t.Helper()
	book := models.Book{Title: "The Go Programming Language", Author: "Donovan", Category: "software", Quantity: quantity}
	if err := client.DB().Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book.ID
}

func bookQuantity(t *testing.T, client *db.Client, bookID uuid.UUID) int64 {
	t.Helper()
	var book models.Book
	if err := client.DB().First(&book, "id = ?", bookID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	return book.Quantity
}

func loanCount(t *testing.T, client *db.Client, bookID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := client.DB().Model(&models.LoanRecord{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		t.Fatalf("count loans: %v", err)
	}
	return count
}

func TestBorrowDecrementsStockAndRecordsLoan(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()
	bookID := seedBook(t, client, 2)

	outcome, err := svc.Borrow(ctx, bookID, "Reader@Example.com")
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if outcome != OutcomeBorrowed {
		t.Fatalf("expected borrowed, got %s", outcome)
	}
	if got := bookQuantity(t, client, bookID); got != 1 {
		t.Fatalf("expected quantity 1, got %d", got)
	}
	if got := loanCount(t, client, bookID); got != 1 {
		t.Fatalf("expected 1 loan, got %d", got)
	}

	var loan models.LoanRecord
	if err := client.DB().First(&loan, "book_id = ?", bookID).Error; err != nil {
		t.Fatalf("load loan: %v", err)
	}
	if loan.BorrowerEmail != "reader@example.com" {
		t.Fatalf("expected normalized email, got %q", loan.BorrowerEmail)
	}
}

func TestBorrowSameBorrowerTwiceLeavesStockAlone(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()
	bookID := seedBook(t, client, 3)

	if _, err := svc.Borrow(ctx, bookID, "reader@example.com"); err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	outcome, err := svc.Borrow(ctx, bookID, "reader@example.com")
	if err != nil {
		t.Fatalf("second borrow: %v", err)
	}
	if outcome != OutcomeAlreadyBorrowed {
		t.Fatalf("expected already-borrowed, got %s", outcome)
	}
	if got := bookQuantity(t, client, bookID); got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
	if got := loanCount(t, client, bookID); got != 1 {
		t.Fatalf("expected 1 loan, got %d", got)
	}
}

func TestBorrowExhaustedStock(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()
	bookID := seedBook(t, client, 0)

	outcome, err := svc.Borrow(ctx, bookID, "reader@example.com")
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if outcome != OutcomeNoQuantity {
		t.Fatalf("expected no-quantity, got %s", outcome)
	}
	if got := loanCount(t, client, bookID); got != 0 {
		t.Fatalf("expected no loans, got %d", got)
	}
}

func TestBorrowUnknownBook(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)

	_, err := svc.Borrow(context.Background(), uuid.New(), "reader@example.com")
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBorrowValidatesInput(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	if _, err := svc.Borrow(ctx, uuid.Nil, "reader@example.com"); err == nil {
		t.Fatal("expected validation error for nil book id")
	}
	if _, err := svc.Borrow(ctx, uuid.New(), "  "); err == nil {
		t.Fatal("expected validation error for blank email")
	}
}

func TestReturnRestoresStockExactlyOnce(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()
	bookID := seedBook(t, client, 1)

	if _, err := svc.Borrow(ctx, bookID, "reader@example.com"); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	var loan models.LoanRecord
	if err := client.DB().First(&loan, "book_id = ?", bookID).Error; err != nil {
		t.Fatalf("load loan: %v", err)
	}

	if err := svc.Return(ctx, loan.ID, bookID); err != nil {
		t.Fatalf("return: %v", err)
	}
	if got := bookQuantity(t, client, bookID); got != 1 {
		t.Fatalf("expected quantity restored to 1, got %d", got)
	}

	// Returning again is a no-op, the shelf count must not move.
	if err := svc.Return(ctx, loan.ID, bookID); err != nil {
		t.Fatalf("repeat return: %v", err)
	}
	if got := bookQuantity(t, client, bookID); got != 1 {
		t.Fatalf("expected quantity still 1, got %d", got)
	}
}

func TestReturnUnknownLoanIsNoOp(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	bookID := seedBook(t, client, 4)

	if err := svc.Return(context.Background(), uuid.New(), bookID); err != nil {
		t.Fatalf("return unknown loan: %v", err)
	}
	if got := bookQuantity(t, client, bookID); got != 4 {
		t.Fatalf("expected quantity untouched, got %d", got)
	}
}

func TestListLoans(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	first := seedBook(t, client, 1)
	second := seedBook(t, client, 1)
	if _, err := svc.Borrow(ctx, first, "reader@example.com"); err != nil {
		t.Fatalf("borrow first: %v", err)
	}
	if _, err := svc.Borrow(ctx, second, "reader@example.com"); err != nil {
		t.Fatalf("borrow second: %v", err)
	}

	loans, err := svc.ListLoans(ctx, "READER@example.com")
	if err != nil {
		t.Fatalf("list loans: %v", err)
	}
	if len(loans) != 2 {
		t.Fatalf("expected 2 loans, got %d", len(loans))
	}

	if _, err := svc.ListLoans(ctx, ""); err == nil {
		t.Fatal("expected validation error for blank email")
	}
}

func TestBorrowReturnHandoffForLastCopy(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()
	bookID := seedBook(t, client, 1)

	outcome, err := svc.Borrow(ctx, bookID, "first@example.com")
	if err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	if outcome != OutcomeBorrowed {
		t.Fatalf("expected borrowed, got %s", outcome)
	}

	// The shelf is empty now, the second reader has to wait.
	outcome, err = svc.Borrow(ctx, bookID, "second@example.com")
	if err != nil {
		t.Fatalf("second borrow: %v", err)
	}
	if outcome != OutcomeNoQuantity {
		t.Fatalf("expected no-quantity, got %s", outcome)
	}
	if got := loanCount(t, client, bookID); got != 1 {
		t.Fatalf("expected 1 loan, got %d", got)
	}

	var loan models.LoanRecord
	if err := client.DB().First(&loan, "book_id = ? AND borrower_email = ?", bookID, "first@example.com").Error; err != nil {
		t.Fatalf("load loan: %v", err)
	}
	if err := svc.Return(ctx, loan.ID, bookID); err != nil {
		t.Fatalf("return: %v", err)
	}
	if got := bookQuantity(t, client, bookID); got != 1 {
		t.Fatalf("expected quantity back to 1, got %d", got)
	}

	outcome, err = svc.Borrow(ctx, bookID, "second@example.com")
	if err != nil {
		t.Fatalf("retry borrow: %v", err)
	}
	if outcome != OutcomeBorrowed {
		t.Fatalf("expected borrowed after return, got %s", outcome)
	}
	if got := bookQuantity(t, client, bookID); got != 0 {
		t.Fatalf("expected quantity 0, got %d", got)
	}

	var handoff models.LoanRecord
	if err := client.DB().First(&handoff, "book_id = ?", bookID).Error; err != nil {
		t.Fatalf("load handoff loan: %v", err)
	}
	if handoff.BorrowerEmail != "second@example.com" {
		t.Fatalf("expected the copy with the second reader, got %q", handoff.BorrowerEmail)
	}
}

func TestBorrowConcurrentNeverOversells(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	bookID := seedBook(t, client, 10)

	const borrowers = 50
	outcomes := make([]BorrowOutcome, borrowers)
	errs := make([]error, borrowers)

	var wg sync.WaitGroup
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("reader%d@example.com", i)
			outcomes[i], errs[i] = svc.Borrow(context.Background(), bookID, email)
		}(i)
	}
	wg.Wait()

	var borrowed, exhausted int
	for i := 0; i < borrowers; i++ {
		if errs[i] != nil {
			t.Fatalf("borrower %d failed: %v", i, errs[i])
		}
		switch outcomes[i] {
		case OutcomeBorrowed:
			borrowed++
		case OutcomeNoQuantity:
			exhausted++
		default:
			t.Fatalf("borrower %d got unexpected outcome %s", i, outcomes[i])
		}
	}

	if borrowed != 10 {
		t.Fatalf("expected exactly 10 successful borrows, got %d", borrowed)
	}
	if exhausted != 40 {
		t.Fatalf("expected 40 exhausted outcomes, got %d", exhausted)
	}
	if got := bookQuantity(t, client, bookID); got != 0 {
		t.Fatalf("expected quantity 0, got %d", got)
	}
	if got := loanCount(t, client, bookID); got != 10 {
		t.Fatalf("expected 10 loans, got %d", got)
	}
}
