package handler

import (
	"net/http"

	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	Service service.UserService
}

func (h UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.list)
	r.Post("/users", h.add)
	r.Put("/users/{id}", h.modify)
	r.Delete("/users/{id}", h.delete)
}

type userRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (req userRequest) input() service.UserInput {
	return service.UserInput{Name: req.Name, Password: req.Password, Role: domain.UserRole(req.Role)}
}

func (h UserHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, u := range items {
		resp = append(resp, userJSON(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h UserHandler) add(w http.ResponseWriter, r *http.Request) {
	var req userRequest
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

func (h UserHandler) modify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req userRequest
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

func (h UserHandler) delete(w http.ResponseWriter, r *http.Request) {
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

// userJSON never exposes the password.
func userJSON(u domain.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
	}
}
