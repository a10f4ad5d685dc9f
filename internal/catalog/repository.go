package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libratech/libratech-backend/pkg/db/models"
)

// Repository exposes persistence helpers for books and categories.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListBooks(ctx context.Context, params listBooksParams) ([]models.Book, error)
	CountBooks(ctx context.Context) (int64, error)
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error)
	DeleteBook(ctx context.Context, id uuid.UUID) (int64, error)
	ListCategories(ctx context.Context, name string, limit int) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type quantityOp string

const (
	quantityOpNone quantityOp = ""
	quantityOpLT   quantityOp = "lt"
	quantityOpGT   quantityOp = "gt"
)

type listBooksParams struct {
	Category   string
	ID         *uuid.UUID
	Quantity   int64
	QuantityOp quantityOp
	Skip       int
	Limit      int
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ListBooks(ctx context.Context, params listBooksParams) ([]models.Book, error) {
	query := r.db.WithContext(ctx).Model(&models.Book{})
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.ID != nil {
		query = query.Where("id = ?", *params.ID)
	}
	switch params.QuantityOp {
	case quantityOpLT:
		query = query.Where("quantity < ?", params.Quantity)
	case quantityOpGT:
		query = query.Where("quantity > ?", params.Quantity)
	}

	var books []models.Book
	err := query.Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repositoryImpl) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repositoryImpl) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *repositoryImpl) CreateBook(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *repositoryImpl) UpdateBook(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) DeleteBook(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) ListCategories(ctx context.Context, name string, limit int) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if name != "" {
		query = query.Where("name = ?", name)
	}

	var categories []models.Category
	if err := query.Order("name ASC").Limit(limit).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repositoryImpl) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}
