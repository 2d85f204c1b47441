package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/google/uuid"
)

// VisitorOptions configures the visitor cookie.
type VisitorOptions struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Visitor resolves the visitor id from the cookie, issuing a new random id
// when the cookie is missing or not a valid UUID. The id is stored in the
// request context, where request logging picks it up; read it with VisitorID.
func Visitor(opts VisitorOptions) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "catalog_visitor"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(opts.CookieName); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}

			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(opts.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := logging.ContextWithVisitor(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// VisitorID returns the visitor id set by Visitor, or "".
func VisitorID(ctx context.Context) string {
	return logging.VisitorFromContext(ctx)
}
