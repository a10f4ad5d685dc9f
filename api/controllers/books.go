package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/libratech/libratech-backend/api/responses"
	"github.com/libratech/libratech-backend/api/validators"
	"github.com/libratech/libratech-backend/internal/catalog"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/logger"
	"github.com/libratech/libratech-backend/pkg/types"
)

const (
	maxListLimit = 1 << 20
	maxFilterLen = 120
)

// ListBooks returns the shelf as a bare JSON array, optionally narrowed by
// category or a single id.
func ListBooks(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		query := catalog.BookQuery{
			Category: validators.SanitizeString(r.URL.Query().Get("category"), maxFilterLen),
		}

		id, ok, err := optionalQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ok {
			query.ID = &id
		}

		if query.Skip, err = validators.ParseQueryInt(r, "skip", 0, 0, maxListLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if query.Limit, err = validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		books, err := svc.ListBooks(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, books)
	}
}

// FilteredBooks narrows books by a quantity comparison and answers with the
// result envelope.
func FilteredBooks(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		query := catalog.FilterQuery{
			Category: validators.SanitizeString(r.URL.Query().Get("category"), maxFilterLen),
		}

		// The quantity comparison only applies when the client sends
		// both halves; a category-only request is a plain listing.
		quantityRaw := strings.TrimSpace(r.URL.Query().Get("quantity"))
		opRaw := strings.TrimSpace(r.URL.Query().Get("value"))
		if quantityRaw != "" && opRaw != "" {
			quantity, err := strconv.ParseInt(quantityRaw, 10, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "error").
					WithDetails(map[string]any{"field": "quantity", "reason": "must be numeric"}))
				return
			}
			query.Quantity = quantity
			query.Op = opRaw
		}

		id, ok, err := optionalQueryUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ok {
			query.ID = &id
		}

		if query.Skip, err = validators.ParseQueryInt(r, "skip", 0, 0, maxListLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if query.Limit, err = validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		books, err := svc.FilteredBooks(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, books)
	}
}

// CountBooks answers with the total number of distinct titles.
func CountBooks(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		count, err := svc.CountBooks(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCount(w, count)
	}
}

type addBookRequest struct {
	Title       string           `json:"name" validate:"required"`
	Author      string           `json:"author" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	Quantity    int64            `json:"quantity" validate:"min=0"`
	Rating      *float64         `json:"rating"`
	Image       *string          `json:"image"`
	Description *string          `json:"description"`
	Attributes  types.Attributes `json:"attributes"`
}

// AddBook shelves a new title.
func AddBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body addBookRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.CreateBook(r.Context(), catalog.BookInput{
			Title:       body.Title,
			Author:      body.Author,
			Category:    body.Category,
			Quantity:    body.Quantity,
			Rating:      body.Rating,
			Image:       body.Image,
			Description: body.Description,
			Attributes:  body.Attributes,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "success")
	}
}

type editBookRequest struct {
	BookID   uuid.UUID       `json:"bookId" validate:"required"`
	BookData editBookPayload `json:"bookData"`
}

// editBookPayload has no quantity field: a stray quantity in bookData is
// ignored rather than rejected, and stock stays with the lending flow.
type editBookPayload struct {
	Title       *string          `json:"name"`
	Author      *string          `json:"author"`
	Category    *string          `json:"category"`
	Rating      *float64         `json:"rating"`
	Image       *string          `json:"image"`
	Description *string          `json:"description"`
	Attributes  types.Attributes `json:"attributes"`
}

// EditBook updates an existing title. A miss keeps the legacy shape and
// answers {"message":"error"}.
func EditBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body editBookRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		matched, err := svc.EditBook(r.Context(), body.BookID, catalog.BookUpdate{
			Title:       body.BookData.Title,
			Author:      body.BookData.Author,
			Category:    body.BookData.Category,
			Rating:      body.BookData.Rating,
			Image:       body.BookData.Image,
			Description: body.BookData.Description,
			Attributes:  body.BookData.Attributes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !matched {
			responses.WriteMessage(w, "error")
			return
		}
		responses.WriteMessage(w, "success")
	}
}

// DeleteBook retires a title and its outstanding loans.
func DeleteBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := validators.RequireQueryUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteBook(r.Context(), bookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "success")
	}
}

func optionalQueryUUID(r *http.Request, key string) (uuid.UUID, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, pkgerrors.New(pkgerrors.CodeValidation, "error").
			WithDetails(map[string]any{"field": key, "reason": "must be a uuid"})
	}
	return id, true, nil
}
