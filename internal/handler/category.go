package handler

import (
	"net/http"

	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	Service  service.CategoryService
	Products service.ProductService
}

func (h CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.list)
	r.Post("/categories", h.add)
	r.Put("/categories/{id}", h.modify)
	r.Delete("/categories/{id}", h.delete)
	r.Get("/categories/{id}/products", h.products)
}

type categoryRequest struct {
	Description string `json:"description"`
}

func (h CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, c := range items {
		resp = append(resp, map[string]any{
			"id":          c.ID,
			"description": c.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h CategoryHandler) add(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.Service.Add(r.Context(), service.CategoryInput{Description: req.Description})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeMutation(w, http.StatusCreated, m)
}

func (h CategoryHandler) modify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.Service.Modify(r.Context(), id, service.CategoryInput{Description: req.Description})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, m)
}

func (h CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func (h CategoryHandler) products(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	items, err := h.Products.ByCategory(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(items))
}
