package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firepoz-backend/internal/db"
	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *db.Accessor) {
	t.Helper()
	st, err := db.OpenSeeded(context.Background())
	require.NoError(t, err)
	acc := db.NewAccessor(st)
	t.Cleanup(acc.Reset)

	products := service.ProductService{Stores: acc}
	r := chi.NewRouter()
	HealthHandler{Store: acc}.RegisterRoutes(r)
	AuthHandler{Service: service.AuthService{Stores: acc}}.RegisterRoutes(r)
	UserHandler{Service: service.UserService{Stores: acc}}.RegisterRoutes(r)
	PartyHandler{Service: service.NewClientService(acc, nil, nil), Path: "/clients"}.RegisterRoutes(r)
	PartyHandler{Service: service.NewSupplierService(acc, nil, nil), Path: "/suppliers"}.RegisterRoutes(r)
	ProductHandler{Service: products}.RegisterRoutes(r)
	StockHandler{Service: products}.RegisterRoutes(r)
	CategoryHandler{Service: service.CategoryService{Stores: acc}, Products: products}.RegisterRoutes(r)
	SaleHandler{Service: service.SaleService{Stores: acc}}.RegisterRoutes(r)
	DashboardHandler{Service: service.DashboardService{Stores: acc}}.RegisterRoutes(r)
	StoreHandler{Accessor: acc}.RegisterRoutes(r)
	return r, acc
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return m
}

func dataList(t *testing.T, env envelope) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &l))
	return l
}

func TestProductRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	code, env := do(t, h, http.MethodPost, "/products", map[string]any{
		"designation": "Jus",
		"quantity":    10,
		"salePrice":   80,
		"costPrice":   "50,00",
	})
	require.Equal(t, http.StatusCreated, code)
	created := dataMap(t, env)
	id := int64(created["id"].(float64))
	generated := created["generated"].(map[string]any)
	assert.Equal(t, fmt.Sprint(id), generated["barcode"])

	code, env = do(t, h, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, code)
	var found map[string]any
	for _, p := range dataList(t, env) {
		if int64(p["id"].(float64)) == id {
			found = p
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "80,00", found["salePrice"])

	code, env = do(t, h, http.MethodPut, fmt.Sprintf("/products/%d", id), map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "designation is required", env.Message)
	assert.Equal(t, "validation", env.Error.Kind)

	code, _ = do(t, h, http.MethodPost, "/products", map[string]any{"designation": "Dup", "barcode": "1"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, h, http.MethodDelete, "/products/999", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodDelete, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/products", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCategoryRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	code, env := do(t, h, http.MethodGet, "/categories/1/products", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, dataList(t, env), 2)

	code, _ = do(t, h, http.MethodDelete, "/categories/1", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, h, http.MethodPut, "/products/3/category", map[string]any{"categoryId": 1})
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodDelete, "/categories/2", nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodGet, "/categories/2/products", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLoginRoute(t *testing.T) {
	h, _ := newTestRouter(t)

	code, env := do(t, h, http.MethodPost, "/auth/login", map[string]any{"name": "admin", "password": "admin"})
	require.Equal(t, http.StatusOK, code)
	user := dataMap(t, env)
	assert.Equal(t, "admin", user["role"])
	assert.NotContains(t, user, "password")

	code, env = do(t, h, http.MethodPost, "/auth/login", map[string]any{"name": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid credentials", env.Message)
}

func TestSaleRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	code, env := do(t, h, http.MethodPost, "/clients", map[string]any{"name": "Karim"})
	require.Equal(t, http.StatusCreated, code)
	clientID := dataMap(t, env)["id"]

	code, env = do(t, h, http.MethodPost, "/sales", map[string]any{
		"lines": []map[string]any{
			{"productId": 3, "quantity": 2, "unitPrice": "150,00"},
			{"productId": 2, "quantity": 1, "unitPrice": 50},
		},
		"clientId":    clientID,
		"userId":      1,
		"password":    "admin",
		"paymentMode": "onAccount",
		"amountPaid":  "100,00",
	})
	require.Equal(t, http.StatusOK, code)
	res := dataMap(t, env)
	assert.Equal(t, "350,00", res["total"])
	assert.Equal(t, "-250,00", res["clientBalance"])
	assert.Equal(t, "BON DE L.", res["nature"])
	saleID := int64(res["saleId"].(float64))

	code, env = do(t, h, http.MethodGet, fmt.Sprintf("/sales/%d", saleID), nil)
	require.Equal(t, http.StatusOK, code)
	sale := dataMap(t, env)
	assert.Len(t, sale["lines"], 2)
	assert.Equal(t, "-250,00", sale["cash"].(map[string]any)["balanceDelta"])

	today := time.Now().Format(db.DateLayout)
	code, env = do(t, h, http.MethodGet, "/sales?date="+today, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, dataList(t, env), 1)

	code, _ = do(t, h, http.MethodGet, "/sales?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/sales", map[string]any{"userId": 1, "password": "admin"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, fmt.Sprintf("/sales/%d/cancel", saleID), map[string]any{"password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, h, http.MethodDelete, fmt.Sprintf("/sales/%d", saleID), map[string]any{"password": "admin"})
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodGet, fmt.Sprintf("/sales/%d", saleID), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, h, http.MethodGet, "/clients", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0,00", dataList(t, env)[0]["balance"])

	code, _ = do(t, h, http.MethodPut, "/sales/999", map[string]any{
		"lines":  []map[string]any{{"productId": 1, "quantity": 1}},
		"userId": 1, "password": "admin",
	})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDashboardRoute(t *testing.T) {
	h, _ := newTestRouter(t)

	code, env := do(t, h, http.MethodGet, "/dashboard?period=week", nil)
	require.Equal(t, http.StatusOK, code)
	sum := dataMap(t, env)
	assert.Equal(t, "0,00", sum["revenue"])
	assert.Len(t, sum["daily"], 7)
	assert.Nil(t, sum["topClient"])

	code, _ = do(t, h, http.MethodGet, "/dashboard?period=year", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStoreImageRoutes(t *testing.T) {
	h, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/store/image", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	image := rec.Body.Bytes()
	require.NotEmpty(t, image)

	code, _ := do(t, h, http.MethodPost, "/suppliers", map[string]any{"name": "Grossiste"})
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, h, http.MethodPut, "/store/image", image)
	require.Equal(t, http.StatusOK, code)

	code, env := do(t, h, http.MethodGet, "/suppliers", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, dataList(t, env))

	code, _ = do(t, h, http.MethodPut, "/store/image", []byte("not a database"))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodDelete, "/store", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, h, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, dataList(t, env), 1)
}

func TestHealthRoute(t *testing.T) {
	h, _ := newTestRouter(t)
	code, _ := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestStockAdjustRoute(t *testing.T) {
	h, _ := newTestRouter(t)

	code, env := do(t, h, http.MethodPost, "/stock/adjust", map[string]any{"productId": 3, "change": 12})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(42), dataMap(t, env)["quantity"])

	code, _ = do(t, h, http.MethodPost, "/stock/adjust", map[string]any{"productId": 3})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, "/stock/adjust", map[string]any{"productId": 999, "change": 1})
	assert.Equal(t, http.StatusNotFound, code)
}
