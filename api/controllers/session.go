package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/libratech/libratech-backend/api/responses"
	"github.com/libratech/libratech-backend/api/validators"
	pkgAuth "github.com/libratech/libratech-backend/pkg/auth"
	"github.com/libratech/libratech-backend/pkg/auth/session"
	"github.com/libratech/libratech-backend/pkg/config"
	pkgerrors "github.com/libratech/libratech-backend/pkg/errors"
	"github.com/libratech/libratech-backend/pkg/logger"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID, email string) error
	Revoke(ctx context.Context, accessID string) error
}

type mintRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// MintToken issues the access cookie for the presented email. Anyone with a
// valid email gets a borrower token; configured librarian emails get admin.
func MintToken(manager sessionManager, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var body mintRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(body.Email))
		role := pkgAuth.RoleBorrower
		if cfg.Access.IsAdmin(email) {
			role = pkgAuth.RoleAdmin
		}

		accessID := session.NewAccessID()
		token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			Email: email,
			Role:  role,
			JTI:   accessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		if err := manager.Generate(r.Context(), accessID, email); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register session"))
			return
		}

		http.SetCookie(w, accessCookie(cfg, token, int(cfg.JWT.SessionTTL().Seconds())))

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"borrower_email": email,
				"actor_role":     string(role),
			})
			logg.Info(ctx, "session.minted")
		}

		responses.WriteMessage(w, "success")
	}
}

// CancelToken revokes the session behind the cookie and clears it. Cancelling
// without a cookie, or with a stale one, still succeeds.
func CancelToken(manager sessionManager, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer responses.WriteMessage(w, "success")

		cookie, err := r.Cookie(cfg.Access.CookieName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			http.SetCookie(w, accessCookie(cfg, "", -1))
			return
		}

		http.SetCookie(w, accessCookie(cfg, "", -1))

		claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg.JWT, cookie.Value)
		if err != nil || claims.ID == "" {
			return
		}

		if manager != nil {
			if err := manager.Revoke(r.Context(), claims.ID); err != nil && logg != nil {
				ctx := logg.WithField(r.Context(), "access_id", claims.ID)
				logg.Warn(ctx, "session.revoke_failed")
			}
		}
	}
}

func accessCookie(cfg *config.Config, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Access.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Access.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	}
}
