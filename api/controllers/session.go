package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/packfinderz-cart/api/responses"
	pkgAuth "github.com/angelmondragon/packfinderz-cart/pkg/auth"
	"github.com/angelmondragon/packfinderz-cart/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
)

type cartSessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CartSessionCreate mints a token for a new anonymous cart.
func CartSessionCreate(cfg config.SessionConfig, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		token, sessionID, err := pkgAuth.MintSessionToken(cfg, now, "", currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint cart session"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithSessionID(r.Context(), sessionID), "cart.session.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cartSessionResponse{
			Token:     token,
			SessionID: sessionID,
			ExpiresAt: now.Add(cfg.TTL()),
		})
	}
}
