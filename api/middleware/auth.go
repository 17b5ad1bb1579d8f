package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tradecert/tradecert-backend/api/responses"
	pkgAuth "github.com/tradecert/tradecert-backend/pkg/auth"
	"github.com/tradecert/tradecert-backend/pkg/config"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/logger"
)

// Auth requires a bearer token signed with cfg and puts its subject on the
// request context as the owner id.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	keys, keysErr := pkgAuth.NewKeys(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if keysErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, keysErr, "token verification unavailable"))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := keys.Verify(token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx = context.WithValue(ctx, ctxOwnerID, claims.OwnerID())
			if claims.ID != "" {
				ctx = context.WithValue(ctx, ctxTokenID, claims.ID)
			}
			if logg != nil {
				ctx = logg.WithOwnerID(ctx, claims.OwnerID())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
