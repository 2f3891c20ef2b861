package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"firepoz-backend/internal/config"
	"firepoz-backend/internal/db"
	"firepoz-backend/internal/handler"
	"firepoz-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, logs *bytes.Buffer) http.Handler {
	t.Helper()
	st, err := db.OpenSeeded(context.Background())
	require.NoError(t, err)
	acc := db.NewAccessor(st)
	t.Cleanup(acc.Reset)

	logger := slog.New(slog.NewJSONHandler(logs, nil))
	return NewRouter(config.Config{RateLimit: 100}, logger, Handlers{
		Health:     handler.HealthHandler{Store: acc},
		Auth:       handler.AuthHandler{Service: service.AuthService{Stores: acc}},
		Categories: handler.CategoryHandler{Service: service.CategoryService{Stores: acc}},
		Clients:    handler.PartyHandler{Service: service.NewClientService(acc, nil, logger), Path: "/clients"},
		Suppliers:  handler.PartyHandler{Service: service.NewSupplierService(acc, nil, logger), Path: "/suppliers"},
		Store:      handler.StoreHandler{Accessor: acc},
	})
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	var logs bytes.Buffer
	h := newRouter(t, &logs)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	assert.Contains(t, logs.String(), `"path":"/health"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestRouterRejectsNonJSONBodies(t *testing.T) {
	var logs bytes.Buffer
	h := newRouter(t, &logs)

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"description":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"description":"Desserts"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
