package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libratech/libratech-backend/pkg/db/models"
)

func TestRepositoryListBooksFilters(t *testing.T) {
	client := newTestClient(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	now := time.Now().UTC()
	scarce := models.Book{Title: "Scarce", Author: "A", Category: "software", Quantity: 1, CreatedAt: now.Add(-2 * time.Hour)}
	require.NoError(t, client.DB().Create(&scarce).Error)
	stocked := models.Book{Title: "Stocked", Author: "B", Category: "software", Quantity: 9, CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, client.DB().Create(&stocked).Error)
	history := models.Book{Title: "History", Author: "C", Category: "history", Quantity: 4, CreatedAt: now}
	require.NoError(t, client.DB().Create(&history).Error)

	books, err := repo.ListBooks(ctx, listBooksParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "History", books[0].Title)
	assert.Equal(t, "Scarce", books[2].Title)

	books, err = repo.ListBooks(ctx, listBooksParams{Category: "software", Limit: 10})
	require.NoError(t, err)
	require.Len(t, books, 2)

	books, err = repo.ListBooks(ctx, listBooksParams{ID: &history.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "History", books[0].Title)

	books, err = repo.ListBooks(ctx, listBooksParams{Quantity: 2, QuantityOp: quantityOpLT, Limit: 10})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Scarce", books[0].Title)

	books, err = repo.ListBooks(ctx, listBooksParams{Quantity: 4, QuantityOp: quantityOpGT, Limit: 10})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Stocked", books[0].Title)

	books, err = repo.ListBooks(ctx, listBooksParams{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Stocked", books[0].Title)
}

func TestRepositoryUpdateAndDeleteBook(t *testing.T) {
	client := newTestClient(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	bookID := seedBook(t, client, "Refactoring", "software", 2)

	rows, err := repo.UpdateBook(ctx, bookID, map[string]any{"title": "Refactoring 2e", "author": "Fowler"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	book, err := repo.GetBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, "Refactoring 2e", book.Title)
	assert.Equal(t, "Fowler", book.Author)

	rows, err = repo.UpdateBook(ctx, uuid.New(), map[string]any{"title": "Ghost"})
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = repo.DeleteBook(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.DeleteBook(ctx, bookID)
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestRepositoryCategories(t *testing.T) {
	client := newTestClient(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	for _, name := range []string{"science", "art", "history"} {
		require.NoError(t, repo.CreateCategory(ctx, &models.Category{Name: name}))
	}

	categories, err := repo.ListCategories(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "art", categories[0].Name)
	assert.Equal(t, "science", categories[2].Name)

	categories, err = repo.ListCategories(ctx, "history", 10)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "history", categories[0].Name)

	count, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
