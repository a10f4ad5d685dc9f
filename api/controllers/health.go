package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/libratech/libratech-backend/api/responses"
	"github.com/libratech/libratech-backend/pkg/config"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/logger"
)

type dependencyPinger interface {
	Ping(ctx context.Context) error
}

// Root answers the legacy greeting on /.
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Welcome to Libratech API"))
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Libratech-Env", cfg.App.Env)
		responses.WriteMessage(w, "success")
	}
}

// HealthReady checks the backing stores. Every failing dependency lands in
// the aggregated error so the log names them all at once.
func HealthReady(cfg *config.Config, database, cache dependencyPinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Libratech-Env", cfg.App.Env)

		var err error
		if database != nil {
			if pingErr := database.Ping(r.Context()); pingErr != nil {
				err = multierr.Append(err, pingErr)
			}
		}
		if cache != nil {
			if pingErr := cache.Ping(r.Context()); pingErr != nil {
				err = multierr.Append(err, pingErr)
			}
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "server-error"))
			return
		}

		responses.WriteMessage(w, "success")
	}
}
