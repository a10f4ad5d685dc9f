package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/libratech/libratech-backend/api/middleware"
	"github.com/libratech/libratech-backend/api/responses"
	"github.com/libratech/libratech-backend/api/validators"
	"github.com/libratech/libratech-backend/internal/lending"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/logger"
)

type borrowRequest struct {
	BookID uuid.UUID `json:"bookId" validate:"required"`
	Email  string    `json:"email" validate:"required,email"`
}

// BorrowBook hands a copy to the borrower. All three business outcomes
// answer 200 with their own message.
func BorrowBook(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lending service unavailable"))
			return
		}

		var body borrowRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if email := middleware.EmailFromContext(r.Context()); email != "" && !strings.EqualFold(email, body.Email) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden"))
			return
		}

		outcome, err := svc.Borrow(r.Context(), body.BookID, body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, string(outcome))
	}
}

type returnRequest struct {
	BookID uuid.UUID `json:"bookId" validate:"required"`
	LoanID uuid.UUID `json:"borrowedId" validate:"required"`
}

// ReturnBook puts a copy back. Repeated returns answer success.
func ReturnBook(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lending service unavailable"))
			return
		}

		var body returnRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Return(r.Context(), body.LoanID, body.BookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "success")
	}
}

// ListBorrowed returns the caller's outstanding loans. The email query
// parameter survives for the legacy clients but must match the token.
func ListBorrowed(svc lending.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lending service unavailable"))
			return
		}

		email := middleware.EmailFromContext(r.Context())
		if requested := strings.TrimSpace(r.URL.Query().Get("email")); requested != "" {
			if email != "" && !strings.EqualFold(email, requested) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden"))
				return
			}
			email = requested
		}
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "error").
				WithDetails(map[string]any{"field": "email", "reason": "is required"}))
			return
		}

		loans, err := svc.ListLoans(r.Context(), email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteResult(w, loans)
	}
}
