package handler

import (
	"net/http"
	"strings"

	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Service service.AuthService
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.Service.Authenticate(r.Context(), service.LoginInput{
		Name:     strings.TrimSpace(req.Name),
		Password: req.Password,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON(*u))
}
