package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-cart/api/middleware"
	cartsvc "github.com/angelmondragon/packfinderz-cart/internal/cart"
	"github.com/angelmondragon/packfinderz-cart/internal/catalog"
	"github.com/angelmondragon/packfinderz-cart/internal/storage"
	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cart/pkg/errors"
)

const testSession = "session-1"

func newTestRegistry(t *testing.T) (*cartsvc.Registry, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	registry, err := cartsvc.NewRegistry(cartsvc.RegistryParams{
		BaseKey:  "b2b-marketplace-cart",
		Slots:    func(key string) cartsvc.Slot { return storage.NewSlot(store, key) },
		Currency: enums.CurrencyUSD,
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry, store
}

func testCatalog() *catalog.MemoryCatalog {
	return catalog.NewMemoryCatalog(
		catalog.Product{ID: "p1", Name: "Jar", UnitPrice: decimal.RequireFromString("2.50"), MinimumOrderQuantity: 10, UnitOfMeasure: enums.ProductUnitUnit},
		catalog.Product{ID: "p2", Name: "Lid", UnitPrice: decimal.RequireFromString("0.10"), MinimumOrderQuantity: 1, UnitOfMeasure: enums.ProductUnitUnit},
	)
}

func cartRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithCartSessionID(req.Context(), testSession))
}

func withProductParam(req *http.Request, productID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("productId", productID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeCart(t *testing.T, resp *httptest.ResponseRecorder) cartsvc.Cart {
	t.Helper()
	var envelope struct {
		Data cartsvc.Cart `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return envelope.Error.Code
}

func TestCartAddItemSuccess(t *testing.T) {
	registry, store := newTestRegistry(t)
	handler := CartAddItem(registry, testCatalog(), nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, cartRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":12}`))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	current := decodeCart(t, resp)
	if current.TotalItems != 12 {
		t.Fatalf("expected 12 items, got %d", current.TotalItems)
	}
	if !current.TotalAmount.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected total 30, got %s", current.TotalAmount)
	}

	if _, err := store.Get(context.Background(), registry.SlotKey(testSession)); err != nil {
		t.Fatalf("expected cart to be persisted: %v", err)
	}
}

func TestCartAddItemRejections(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   pkgerrors.Code
	}{
		{name: "below moq", body: `{"product_id":"p1","quantity":9}`, status: http.StatusUnprocessableEntity, code: pkgerrors.CodeStateConflict},
		{name: "zero quantity", body: `{"product_id":"p2","quantity":0}`, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{name: "quantity too large", body: `{"product_id":"p2","quantity":9223372036854775807}`, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{name: "unknown product", body: `{"product_id":"missing","quantity":1}`, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{name: "missing product id", body: `{"quantity":1}`, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
		{name: "unknown field", body: `{"product_id":"p2","quantity":1,"price":"0"}`, status: http.StatusBadRequest, code: pkgerrors.CodeValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			registry, store := newTestRegistry(t)
			handler := CartAddItem(registry, testCatalog(), nil)

			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, cartRequest(http.MethodPost, "/api/v1/cart/items", tc.body))

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			if code := decodeErrorCode(t, resp); code != string(tc.code) {
				t.Fatalf("expected code %s got %s", tc.code, code)
			}
			if _, err := store.Get(context.Background(), registry.SlotKey(testSession)); !errors.Is(err, storage.ErrNotFound) {
				t.Fatalf("rejected add must not persist, got %v", err)
			}
		})
	}
}

type failingCatalog struct{}

func (failingCatalog) GetByID(context.Context, string) (*catalog.Product, error) {
	return nil, errors.New("connection reset")
}

func (failingCatalog) List(context.Context) ([]catalog.Product, error) {
	return nil, errors.New("connection reset")
}

func TestCartAddItemCatalogFailure(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := CartAddItem(registry, failingCatalog{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, cartRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":12}`))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestCartRequiresSession(t *testing.T) {
	registry, _ := newTestRegistry(t)
	handler := CartGet(registry, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartGetItem(t *testing.T) {
	registry, _ := newTestRegistry(t)
	products := testCatalog()

	add := httptest.NewRecorder()
	CartAddItem(registry, products, nil).ServeHTTP(add, cartRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p2","quantity":3}`))
	if add.Code != http.StatusCreated {
		t.Fatalf("seed add failed: %d", add.Code)
	}

	handler := CartGetItem(registry, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, withProductParam(cartRequest(http.MethodGet, "/api/v1/cart/items/p2", ""), "p2"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.LineItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Quantity != 3 || envelope.Data.ProductID != "p2" {
		t.Fatalf("unexpected line %+v", envelope.Data)
	}

	missing := httptest.NewRecorder()
	handler.ServeHTTP(missing, withProductParam(cartRequest(http.MethodGet, "/api/v1/cart/items/p1", ""), "p1"))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", missing.Code)
	}
}

func TestCartSetQuantityAndRemove(t *testing.T) {
	registry, _ := newTestRegistry(t)
	products := testCatalog()

	add := httptest.NewRecorder()
	CartAddItem(registry, products, nil).ServeHTTP(add, cartRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p1","quantity":10}`))
	if add.Code != http.StatusCreated {
		t.Fatalf("seed add failed: %d", add.Code)
	}

	set := httptest.NewRecorder()
	CartSetQuantity(registry, nil).ServeHTTP(set, withProductParam(cartRequest(http.MethodPut, "/api/v1/cart/items/p1", `{"quantity":20}`), "p1"))
	if set.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", set.Code, set.Body.String())
	}
	if got := decodeCart(t, set); got.TotalItems != 20 || !got.TotalAmount.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected cart after set: %+v", got)
	}

	below := httptest.NewRecorder()
	CartSetQuantity(registry, nil).ServeHTTP(below, withProductParam(cartRequest(http.MethodPut, "/api/v1/cart/items/p1", `{"quantity":5}`), "p1"))
	if below.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", below.Code)
	}

	missingQty := httptest.NewRecorder()
	CartSetQuantity(registry, nil).ServeHTTP(missingQty, withProductParam(cartRequest(http.MethodPut, "/api/v1/cart/items/p1", `{}`), "p1"))
	if missingQty.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", missingQty.Code)
	}

	remove := httptest.NewRecorder()
	CartRemoveItem(registry, nil).ServeHTTP(remove, withProductParam(cartRequest(http.MethodDelete, "/api/v1/cart/items/p1", ""), "p1"))
	if remove.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", remove.Code)
	}
	if got := decodeCart(t, remove); len(got.Items) != 0 || got.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestCartSetQuantityZeroRemovesLine(t *testing.T) {
	registry, _ := newTestRegistry(t)

	add := httptest.NewRecorder()
	CartAddItem(registry, testCatalog(), nil).ServeHTTP(add, cartRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p2","quantity":4}`))

	resp := httptest.NewRecorder()
	CartSetQuantity(registry, nil).ServeHTTP(resp, withProductParam(cartRequest(http.MethodPut, "/api/v1/cart/items/p2", `{"quantity":0}`), "p2"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := decodeCart(t, resp); len(got.Items) != 0 {
		t.Fatalf("expected line removed, got %+v", got.Items)
	}
}

func TestCartClear(t *testing.T) {
	registry, store := newTestRegistry(t)

	add := httptest.NewRecorder()
	CartAddItem(registry, testCatalog(), nil).ServeHTTP(add, cartRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":"p2","quantity":4}`))

	resp := httptest.NewRecorder()
	CartClear(registry, nil).ServeHTTP(resp, cartRequest(http.MethodDelete, "/api/v1/cart", ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	got := decodeCart(t, resp)
	if len(got.Items) != 0 || !got.TotalAmount.IsZero() || got.Currency != enums.CurrencyUSD {
		t.Fatalf("unexpected cleared cart %+v", got)
	}

	raw, err := store.Get(context.Background(), registry.SlotKey(testSession))
	if err != nil {
		t.Fatalf("expected cleared cart to be persisted: %v", err)
	}
	if !strings.Contains(string(raw), `"items":[]`) {
		t.Fatalf("expected empty items in stored document, got %s", raw)
	}
}

func TestCartBlankProductParam(t *testing.T) {
	registry, _ := newTestRegistry(t)

	resp := httptest.NewRecorder()
	CartRemoveItem(registry, nil).ServeHTTP(resp, withProductParam(cartRequest(http.MethodDelete, "/api/v1/cart/items/%20", ""), "  "))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
