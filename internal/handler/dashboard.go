package handler

import (
	"net/http"

	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type DashboardHandler struct {
	Service service.DashboardService
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.summary)
}

func (h DashboardHandler) summary(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.Compute(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	daily := make([]map[string]any, 0, len(data.Daily))
	for _, p := range data.Daily {
		daily = append(daily, map[string]any{
			"day":     p.Day,
			"revenue": p.Revenue,
		})
	}
	var top map[string]any
	if data.TopClient != nil {
		top = map[string]any{
			"id":      data.TopClient.ID,
			"name":    data.TopClient.Name,
			"revenue": data.TopClient.Revenue,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":    data.Period,
		"from":      data.From,
		"to":        data.To,
		"revenue":   data.Revenue,
		"profit":    data.Profit,
		"saleCount": data.SaleCount,
		"lowStock":  data.LowStock,
		"topClient": top,
		"daily":     daily,
	})
}
