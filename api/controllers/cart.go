package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/packfinderz-cart/api/middleware"
	"github.com/angelmondragon/packfinderz-cart/api/responses"
	"github.com/angelmondragon/packfinderz-cart/api/validators"
	cartsvc "github.com/angelmondragon/packfinderz-cart/internal/cart"
	"github.com/angelmondragon/packfinderz-cart/internal/catalog"
	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
)

const maxProductIDLength = 128

// CartResolver returns the cart manager for a session.
type CartResolver interface {
	Manager(ctx context.Context, sessionID string) (*cartsvc.Manager, error)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Quantity  int    `json:"quantity" validate:"max=1000000"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=1000000"`
}

// CartGet returns the session's cart.
func CartGet(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager, ok := resolveCart(w, r, carts, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, manager.Snapshot(r.Context()))
	}
}

// CartAddItem resolves the product from the catalog and adds it to the cart.
func CartAddItem(carts CartResolver, products catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		manager, ok := resolveCart(w, r, carts, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID := validators.SanitizeString(payload.ProductID, maxProductIDLength)
		product, err := products.GetByID(r.Context(), productID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "product "+productID+" is not available")
			} else {
				err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := manager.Add(r.Context(), product, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, current)
	}
}

// CartGetItem returns one line item or 404.
func CartGetItem(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager, ok := resolveCart(w, r, carts, logg)
		if !ok {
			return
		}
		productID, ok := productIDParam(w, r, logg)
		if !ok {
			return
		}
		item, found := manager.Get(r.Context(), productID)
		if !found {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart"))
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CartSetQuantity replaces a line quantity; zero removes the line.
func CartSetQuantity(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager, ok := resolveCart(w, r, carts, logg)
		if !ok {
			return
		}
		productID, ok := productIDParam(w, r, logg)
		if !ok {
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := manager.SetQuantity(r.Context(), productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, current)
	}
}

// CartRemoveItem drops a line; absent products are not an error.
func CartRemoveItem(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager, ok := resolveCart(w, r, carts, logg)
		if !ok {
			return
		}
		productID, ok := productIDParam(w, r, logg)
		if !ok {
			return
		}
		current, err := manager.Remove(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, current)
	}
}

// CartClear empties the cart.
func CartClear(carts CartResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager, ok := resolveCart(w, r, carts, logg)
		if !ok {
			return
		}
		current, err := manager.Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, current)
	}
}

func resolveCart(w http.ResponseWriter, r *http.Request, carts CartResolver, logg *logger.Logger) (*cartsvc.Manager, bool) {
	if carts == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return nil, false
	}
	sessionID := middleware.CartSessionIDFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session missing"))
		return nil, false
	}
	manager, err := carts.Manager(r.Context(), sessionID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart"))
		return nil, false
	}
	return manager, true
}

func productIDParam(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	productID := validators.SanitizeString(chi.URLParam(r, "productId"), maxProductIDLength)
	if strings.TrimSpace(productID) == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
		return "", false
	}
	return productID, true
}
