package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/packfinderz-cart/api/responses"
	"github.com/angelmondragon/packfinderz-cart/api/validators"
	pkgAuth "github.com/angelmondragon/packfinderz-cart/pkg/auth"
	"github.com/angelmondragon/packfinderz-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
)

// CartSessionHeader carries a session token for clients that cannot set Authorization.
const CartSessionHeader = "X-Cart-Session"

// CartSession validates the cart session token and seeds the request context
// with its session id. Tokens minted for a different cart currency are refused.
func CartSession(cfg config.SessionConfig, currency string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				raw = strings.TrimSpace(r.Header.Get(CartSessionHeader))
			}
			token, err := validators.BearerToken(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing cart session"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid cart session"))
				return
			}
			if !strings.EqualFold(claims.Currency, currency) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session currency mismatch"))
				return
			}

			ctx := WithCartSessionID(r.Context(), claims.SessionID())
			if logg != nil {
				ctx = logg.WithSessionID(ctx, claims.SessionID())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
