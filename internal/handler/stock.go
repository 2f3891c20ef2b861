package handler

import (
	"net/http"

	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type StockHandler struct {
	Service service.ProductService
}

func (h StockHandler) RegisterRoutes(r chi.Router) {
	r.Post("/stock/adjust", h.adjust)
}

func (h StockHandler) adjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
		Change    int   `json:"change"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == 0 {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	level, err := h.Service.AdjustStock(r.Context(), req.ProductID, req.Change)
	if err != nil {
		writeAppError(w, err)
		return
	}
	data := map[string]any{
		"productId": level.ProductID,
		"quantity":  level.Quantity,
	}
	if level.Warning != "" {
		data["warning"] = level.Warning
	}
	writeJSON(w, http.StatusOK, data)
}
