package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	Service service.ProductService
}

func (h ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.add)
	r.Put("/products/{id}", h.modify)
	r.Delete("/products/{id}", h.delete)
	r.Put("/products/{id}/category", h.assignCategory)
}

// amount accepts a JSON number or a string in display or canonical notation.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amount(n.String())
	return nil
}

type productRequest struct {
	Barcode        string `json:"barcode"`
	Designation    string `json:"designation"`
	Quantity       int    `json:"quantity"`
	SalePrice      amount `json:"salePrice"`
	CostPrice      amount `json:"costPrice"`
	Reference      string `json:"reference"`
	CategoryID     *int64 `json:"categoryId"`
	WholesalePrice amount `json:"wholesalePrice"`
	MinPrice       amount `json:"minPrice"`
	Available      *bool  `json:"available"`
}

func (req productRequest) input() service.ProductInput {
	return service.ProductInput{
		Barcode:        req.Barcode,
		Designation:    req.Designation,
		Quantity:       req.Quantity,
		SalePrice:      string(req.SalePrice),
		CostPrice:      string(req.CostPrice),
		Reference:      req.Reference,
		CategoryID:     req.CategoryID,
		WholesalePrice: string(req.WholesalePrice),
		MinPrice:       string(req.MinPrice),
		Available:      req.Available,
	}
}

func (h ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(items))
}

func (h ProductHandler) add(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.Service.Add(r.Context(), req.input())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeMutation(w, http.StatusCreated, m)
}

func (h ProductHandler) modify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.Service.Modify(r.Context(), id, req.input())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, m)
}

func (h ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, m)
}

func (h ProductHandler) assignCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		CategoryID *int64 `json:"categoryId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.Service.AssignCategory(r.Context(), id, req.CategoryID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, m)
}

func toProductResponses(items []domain.Product) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, p := range items {
		out = append(out, map[string]any{
			"id":             p.ID,
			"barcode":        p.Barcode,
			"designation":    p.Designation,
			"quantity":       p.Quantity,
			"salePrice":      p.SalePrice,
			"costPrice":      p.CostPrice,
			"reference":      p.Reference,
			"categoryId":     p.CategoryID,
			"wholesalePrice": p.WholesalePrice,
			"minPrice":       p.MinPrice,
			"available":      p.Available,
			"createdAt":      p.CreatedAt,
		})
	}
	return out
}
