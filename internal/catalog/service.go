package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libratech/libratech-backend/pkg/config"
	"github.com/libratech/libratech-backend/pkg/db/models"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/pagination"
	"github.com/libratech/libratech-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LoanPurger clears the loans tied to a book inside the delete transaction.
type LoanPurger interface {
	PurgeForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (int64, error)
}

// Service defines shelf management operations.
type Service interface {
	ListBooks(ctx context.Context, query BookQuery) ([]models.Book, error)
	FilteredBooks(ctx context.Context, query FilterQuery) ([]models.Book, error)
	CountBooks(ctx context.Context) (int64, error)
	ListCategories(ctx context.Context, name string, limit int) ([]models.Category, error)
	CreateBook(ctx context.Context, input BookInput) (*models.Book, error)
	EditBook(ctx context.Context, bookID uuid.UUID, update BookUpdate) (bool, error)
	DeleteBook(ctx context.Context, bookID uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	purger LoanPurger
	limits config.CatalogConfig
}

// BookQuery filters the shelf listing.
type BookQuery struct {
	Category string
	ID       *uuid.UUID
	Skip     int
	Limit    int
}

// FilterQuery narrows books by a quantity comparison on top of BookQuery.
type FilterQuery struct {
	Quantity int64
	Op       string
	Category string
	ID       *uuid.UUID
	Skip     int
	Limit    int
}

// BookInput carries the fields accepted when shelving a new book.
type BookInput struct {
	Title       string
	Author      string
	Category    string
	Quantity    int64
	Rating      *float64
	Image       *string
	Description *string
	Attributes  types.Attributes
}

// BookUpdate carries the optional descriptive fields of an edit. Nil means
// untouched. Quantity is deliberately absent: only the lending package
// mutates stock once a book is shelved.
type BookUpdate struct {
	Title       *string
	Author      *string
	Category    *string
	Rating      *float64
	Image       *string
	Description *string
	Attributes  types.Attributes
}

// NewService wires catalog dependencies.
func NewService(repo Repository, tx txRunner, purger LoanPurger, limits config.CatalogConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, purger: purger, limits: limits}, nil
}

func (s *service) ListBooks(ctx context.Context, query BookQuery) ([]models.Book, error) {
	// A single-id request is a point lookup, not a scan. An unknown id
	// answers an empty array like any other miss on this endpoint.
	if query.ID != nil {
		book, err := s.repo.GetBook(ctx, *query.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []models.Book{}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get book")
		}
		return []models.Book{*book}, nil
	}

	page := pagination.Normalize(pagination.Params{Skip: query.Skip, Limit: query.Limit}, s.limits.BookListLimit)
	books, err := s.repo.ListBooks(ctx, listBooksParams{
		Category: strings.TrimSpace(query.Category),
		Skip:     page.Skip,
		Limit:    page.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}
	return books, nil
}

func (s *service) FilteredBooks(ctx context.Context, query FilterQuery) ([]models.Book, error) {
	op := quantityOp(strings.ToLower(strings.TrimSpace(query.Op)))
	if op != quantityOpNone && op != quantityOpLT && op != quantityOpGT {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "error").
			WithDetails(map[string]any{"field": "value", "reason": "must be lt or gt"})
	}
	if query.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "error").
			WithDetails(map[string]any{"field": "quantity", "reason": "must not be negative"})
	}

	page := pagination.Normalize(pagination.Params{Skip: query.Skip, Limit: query.Limit}, s.limits.BookListLimit)
	books, err := s.repo.ListBooks(ctx, listBooksParams{
		Category:   strings.TrimSpace(query.Category),
		ID:         query.ID,
		Quantity:   query.Quantity,
		QuantityOp: op,
		Skip:       page.Skip,
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "filter books")
	}
	return books, nil
}

func (s *service) CountBooks(ctx context.Context) (int64, error) {
	count, err := s.repo.CountBooks(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count books")
	}
	return count, nil
}

func (s *service) ListCategories(ctx context.Context, name string, limit int) ([]models.Category, error) {
	page := pagination.Normalize(pagination.Params{Limit: limit}, s.limits.CategoryListLimit)
	categories, err := s.repo.ListCategories(ctx, strings.TrimSpace(name), page.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) CreateBook(ctx context.Context, input BookInput) (*models.Book, error) {
	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)
	category := strings.TrimSpace(input.Category)
	if title == "" || author == "" || category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "error").
			WithDetails(map[string]any{"reason": "name, author and category are required"})
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "error").
			WithDetails(map[string]any{"field": "quantity", "reason": "must not be negative"})
	}

	book := &models.Book{
		Title:       title,
		Author:      author,
		Category:    category,
		Quantity:    input.Quantity,
		Rating:      input.Rating,
		Image:       input.Image,
		Description: input.Description,
		Attributes:  input.Attributes,
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}
	return book, nil
}

// EditBook applies the provided fields. The boolean reports whether any row
// matched, the legacy wire turns a miss into {"message":"error"}.
func (s *service) EditBook(ctx context.Context, bookID uuid.UUID, update BookUpdate) (bool, error) {
	if bookID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "error")
	}

	updates := map[string]any{}
	if update.Title != nil {
		if v := strings.TrimSpace(*update.Title); v != "" {
			updates["title"] = v
		}
	}
	if update.Author != nil {
		if v := strings.TrimSpace(*update.Author); v != "" {
			updates["author"] = v
		}
	}
	if update.Category != nil {
		if v := strings.TrimSpace(*update.Category); v != "" {
			updates["category"] = v
		}
	}
	if update.Rating != nil {
		updates["rating"] = *update.Rating
	}
	if update.Image != nil {
		updates["image"] = *update.Image
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Attributes != nil {
		updates["attributes"] = update.Attributes
	}
	if len(updates) == 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "error").
			WithDetails(map[string]any{"reason": "no fields to update"})
	}

	affected, err := s.repo.UpdateBook(ctx, bookID, updates)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "edit book")
	}
	return affected > 0, nil
}

// DeleteBook retires a book and sweeps its loans in the same transaction.
// The book row goes first so a concurrent borrow cannot slip a fresh loan in
// behind the sweep.
func (s *service) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "error")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		deleted, err := repo.DeleteBook(ctx, bookID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "not-found")
		}

		if s.purger != nil {
			if _, err := s.purger.PurgeForBook(ctx, tx, bookID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete book")
	}
	return nil
}
