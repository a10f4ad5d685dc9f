package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/libratech/libratech-backend/internal/lending"
	"github.com/libratech/libratech-backend/pkg/config"
	"github.com/libratech/libratech-backend/pkg/db"
	"github.com/libratech/libratech-backend/pkg/db/models"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/types"
)

func newTestClient(t *testing.T) *db.Client {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	client, err := db.NewSQLite(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := client.DB().AutoMigrate(&models.Book{}, &models.Category{}, &models.LoanRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("extract sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { client.Close() })
	return client
}

func testLimits() config.CatalogConfig {
	return config.CatalogConfig{BookListLimit: 4000, CategoryListLimit: 500}
}

func newTestService(t *testing.T, client *db.Client) Service {
	t.Helper()
	purger := lending.NewPurger(lending.NewRepository(client.DB()))
	svc, err := NewService(NewRepository(client.DB()), client, purger, testLimits())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedBook(t *testing.T, client *db.Client, title, category string, quantity int64) uuid.UUID {
	t.Helper()
	book := models.Book{Title: title, Author: "Author", Category: category, Quantity: quantity}
	if err := client.DB().Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book.ID
}

func TestCreateAndListBooks(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	rating := 4.5
	book, err := svc.CreateBook(ctx, BookInput{
		Title:      "Clean Architecture",
		Author:     "Martin",
		Category:   "software",
		Quantity:   3,
		Rating:     &rating,
		Attributes: types.Attributes{"publisher": "Prentice Hall"},
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if book.ID == uuid.Nil {
		t.Fatal("expected generated book id")
	}

	seedBook(t, client, "SICP", "software", 1)
	seedBook(t, client, "Dune", "fiction", 2)

	books, err := svc.ListBooks(ctx, BookQuery{Category: "software"})
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 software books, got %d", len(books))
	}

	byID, err := svc.ListBooks(ctx, BookQuery{ID: &book.ID})
	if err != nil {
		t.Fatalf("list by id: %v", err)
	}
	if len(byID) != 1 || byID[0].ID != book.ID {
		t.Fatalf("expected the created book, got %v", byID)
	}

	count, err := svc.CountBooks(ctx)
	if err != nil {
		t.Fatalf("count books: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestCreateBookValidatesInput(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	if _, err := svc.CreateBook(ctx, BookInput{Author: "Martin", Category: "software"}); err == nil {
		t.Fatal("expected validation error for missing title")
	}
	if _, err := svc.CreateBook(ctx, BookInput{Title: "X", Author: "Y", Category: "Z", Quantity: -1}); err == nil {
		t.Fatal("expected validation error for negative quantity")
	}
}

func TestFilteredBooks(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	seedBook(t, client, "A", "software", 0)
	seedBook(t, client, "B", "software", 5)
	seedBook(t, client, "C", "fiction", 10)

	scarce, err := svc.FilteredBooks(ctx, FilterQuery{Quantity: 1, Op: "lt"})
	if err != nil {
		t.Fatalf("filter lt: %v", err)
	}
	if len(scarce) != 1 || scarce[0].Title != "A" {
		t.Fatalf("expected only the empty shelf, got %v", scarce)
	}

	stocked, err := svc.FilteredBooks(ctx, FilterQuery{Quantity: 4, Op: "gt", Category: "software"})
	if err != nil {
		t.Fatalf("filter gt: %v", err)
	}
	if len(stocked) != 1 || stocked[0].Title != "B" {
		t.Fatalf("expected the stocked software book, got %v", stocked)
	}

	if _, err := svc.FilteredBooks(ctx, FilterQuery{Quantity: 1, Op: "between"}); err == nil {
		t.Fatal("expected validation error for unknown operator")
	}
	if _, err := svc.FilteredBooks(ctx, FilterQuery{Quantity: -1, Op: "lt"}); err == nil {
		t.Fatal("expected validation error for negative quantity")
	}
}

func TestFilteredBooksWithoutComparison(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	seedBook(t, client, "A", "software", 0)
	seedBook(t, client, "B", "software", 5)
	seedBook(t, client, "C", "fiction", 10)

	// No operator means no quantity predicate, only the other filters.
	all, err := svc.FilteredBooks(ctx, FilterQuery{})
	if err != nil {
		t.Fatalf("filter without comparison: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all 3 books, got %d", len(all))
	}

	software, err := svc.FilteredBooks(ctx, FilterQuery{Category: "software"})
	if err != nil {
		t.Fatalf("filter by category: %v", err)
	}
	if len(software) != 2 {
		t.Fatalf("expected 2 software books, got %d", len(software))
	}
}

func TestListBooksUnknownIDReturnsEmpty(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	seedBook(t, client, "SICP", "software", 1)

	missing := uuid.New()
	books, err := svc.ListBooks(ctx, BookQuery{ID: &missing})
	if err != nil {
		t.Fatalf("list by unknown id: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected empty result, got %v", books)
	}
}

func TestListBooksPagination(t *testing.T) {
	client := newTestClient(t)
	purger := lending.NewPurger(lending.NewRepository(client.DB()))
	svc, err := NewService(NewRepository(client.DB()), client, purger, config.CatalogConfig{BookListLimit: 2, CategoryListLimit: 500})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		seedBook(t, client, title, "software", 1)
	}

	first, err := svc.ListBooks(ctx, BookQuery{})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected page of 2, got %d", len(first))
	}

	second, err := svc.ListBooks(ctx, BookQuery{Skip: 2})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 book on second page, got %d", len(second))
	}
}

func TestEditBook(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()
	bookID := seedBook(t, client, "Old Title", "software", 1)

	title := "New Title"
	author := "New Author"
	matched, err := svc.EditBook(ctx, bookID, BookUpdate{Title: &title, Author: &author})
	if err != nil {
		t.Fatalf("edit book: %v", err)
	}
	if !matched {
		t.Fatal("expected a matched row")
	}

	var book models.Book
	if err := client.DB().First(&book, "id = ?", bookID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if book.Title != "New Title" || book.Author != "New Author" {
		t.Fatalf("unexpected book state: %+v", book)
	}
	// Edits never reach into stock.
	if book.Quantity != 1 {
		t.Fatalf("expected quantity untouched, got %d", book.Quantity)
	}

	matched, err = svc.EditBook(ctx, uuid.New(), BookUpdate{Title: &title})
	if err != nil {
		t.Fatalf("edit missing book: %v", err)
	}
	if matched {
		t.Fatal("expected no match for unknown book")
	}

	if _, err := svc.EditBook(ctx, bookID, BookUpdate{}); err == nil {
		t.Fatal("expected validation error for empty update")
	}
}

func TestDeleteBookSweepsLoans(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()
	bookID := seedBook(t, client, "Borrowed Book", "software", 1)

	loan := models.LoanRecord{BookID: bookID, BorrowerEmail: "reader@example.com"}
	if err := client.DB().Create(&loan).Error; err != nil {
		t.Fatalf("seed loan: %v", err)
	}

	if err := svc.DeleteBook(ctx, bookID); err != nil {
		t.Fatalf("delete book: %v", err)
	}

	var books, loans int64
	if err := client.DB().Model(&models.Book{}).Count(&books).Error; err != nil {
		t.Fatalf("count books: %v", err)
	}
	if err := client.DB().Model(&models.LoanRecord{}).Count(&loans).Error; err != nil {
		t.Fatalf("count loans: %v", err)
	}
	if books != 0 || loans != 0 {
		t.Fatalf("expected empty tables, got books=%d loans=%d", books, loans)
	}

	err := svc.DeleteBook(ctx, bookID)
	if err == nil {
		t.Fatal("expected not found for second delete")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListCategories(t *testing.T) {
	client := newTestClient(t)
	svc := newTestService(t, client)
	ctx := context.Background()

	for _, name := range []string{"software", "fiction"} {
		if err := client.DB().Create(&models.Category{Name: name}).Error; err != nil {
			t.Fatalf("seed category: %v", err)
		}
	}

	categories, err := svc.ListCategories(ctx, "", 0)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].Name != "fiction" {
		t.Fatalf("expected name ordering, got %v", categories)
	}

	named, err := svc.ListCategories(ctx, "software", 0)
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(named) != 1 || named[0].Name != "software" {
		t.Fatalf("expected the software category, got %v", named)
	}
}
