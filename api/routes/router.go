package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/libratech/libratech-backend/api/controllers"
	"github.com/libratech/libratech-backend/api/middleware"
	"github.com/libratech/libratech-backend/internal/catalog"
	"github.com/libratech/libratech-backend/internal/lending"
	"github.com/libratech/libratech-backend/pkg/auth"
	"github.com/libratech/libratech-backend/pkg/auth/session"
	"github.com/libratech/libratech-backend/pkg/config"
	"github.com/libratech/libratech-backend/pkg/logger"
)

type sessionManager interface {
	session.AccessSessionChecker
	Generate(ctx context.Context, accessID, email string) error
	Revoke(ctx context.Context, accessID string) error
}

type dependencyPinger interface {
	Ping(ctx context.Context) error
}

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps bundles everything the router needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       dependencyPinger
	CachePinger    dependencyPinger
	RateLimiter    rateLimiterStore
	SessionManager sessionManager
	Catalog        catalog.Service
	Lending        lending.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Access),
	)

	mintPolicy := middleware.MintRateLimitPolicy{
		Window: cfg.Access.MintWindow,
		Limit:  cfg.Access.MintLimit,
	}

	r.Get("/", controllers.Root())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DBPinger, deps.CachePinger, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.MintRateLimit(mintPolicy, deps.RateLimiter, logg)).
			Post("/jwt", controllers.MintToken(deps.SessionManager, cfg, logg))
		r.Get("/cancel-token", controllers.CancelToken(deps.SessionManager, cfg, logg))

		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/books", controllers.ListBooks(deps.Catalog, logg))
		r.Get("/filtered-books", controllers.FilteredBooks(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Access, cfg.JWT, deps.SessionManager, logg))

			r.Get("/books-count", controllers.CountBooks(deps.Catalog, logg))
			r.Get("/borrow-book", controllers.ListBorrowed(deps.Lending, logg))
			r.Post("/borrow-book", controllers.BorrowBook(deps.Lending, logg))
			r.Post("/return-book", controllers.ReturnBook(deps.Lending, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(auth.RoleAdmin), logg))

				r.Post("/add-book", controllers.AddBook(deps.Catalog, logg))
				r.Put("/edit-book", controllers.EditBook(deps.Catalog, logg))
				r.Delete("/delete-book", controllers.DeleteBook(deps.Catalog, logg))
			})
		})
	})

	return r
}
