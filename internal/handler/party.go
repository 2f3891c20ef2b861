package handler

import (
	"net/http"

	"firepoz-backend/internal/domain"
	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// PartyHandler serves clients or suppliers under Path.
type PartyHandler struct {
	Service service.PartyService
	Path    string
}

func (h PartyHandler) RegisterRoutes(r chi.Router) {
	r.Get(h.Path, h.list)
	r.Post(h.Path, h.add)
	r.Get(h.Path+"/{id}", h.get)
	r.Put(h.Path+"/{id}", h.modify)
	r.Delete(h.Path+"/{id}", h.delete)
}

type partyRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

func (req partyRequest) input() service.PartyInput {
	return service.PartyInput{Name: req.Name, Contact: req.Contact, Address: req.Address}
}

func (h PartyHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, p := range items {
		resp = append(resp, partyJSON(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h PartyHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partyJSON(*p))
}

func (h PartyHandler) add(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
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

func (h PartyHandler) modify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req partyRequest
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

func (h PartyHandler) delete(w http.ResponseWriter, r *http.Request) {
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

func partyJSON(p domain.Party) map[string]any {
	return map[string]any{
		"id":        p.ID,
		"name":      p.Name,
		"balance":   p.Balance,
		"reference": p.Reference,
		"contact":   p.Contact,
		"address":   p.Address,
		"createdAt": p.CreatedAt,
	}
}
