package controllers

import (
	"net/http"

	"github.com/libratech/libratech-backend/api/responses"
	"github.com/libratech/libratech-backend/api/validators"
	"github.com/libratech/libratech-backend/internal/catalog"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/logger"
)

// ListCategories returns the category shelf as a bare JSON array.
func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		name := validators.SanitizeString(r.URL.Query().Get("name"), maxFilterLen)
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categories, err := svc.ListCategories(r.Context(), name, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, categories)
	}
}
