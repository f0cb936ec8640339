package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/svsh/linkup-server/internal/models"
	"github.com/svsh/linkup-server/internal/store"
	"github.com/svsh/linkup-server/internal/token"
)

type ctxKey string

const principalKey ctxKey = "principal"

// PublicPrefix marks the unauthenticated part of the API surface.
const PublicPrefix = "/api/auth/"

// Principal is the identity resolved from a bearer token. It lives only for
// the duration of one request.
type Principal struct {
	ID    int64
	Email string
	Role  models.Role
}

// PrincipalFrom returns the principal attached to ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// Session resolves a bearer token into a request principal. It never rejects
// a request on its own: the public prefix skips the check entirely, and a
// missing or invalid token leaves the request unauthenticated for downstream
// guards to deal with.
func Session(tokens *token.Manager, users store.UserStore, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, PublicPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer") {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer"))
			subject, err := tokens.ExtractSubject(raw)
			if err != nil || subject == "" {
				log.WithError(err).Debug("bearer token rejected")
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByEmail(r.Context(), subject)
			if err != nil {
				log.WithField("subject", subject).Debug("token subject has no user record")
				next.ServeHTTP(w, r)
				return
			}

			ok, err := tokens.Validate(raw, user.Email)
			if err != nil || !ok {
				next.ServeHTTP(w, r)
				return
			}

			p := &Principal{ID: user.ID, Email: user.Email, Role: user.Role}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
