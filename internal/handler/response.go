package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
		},
	})
}

// writeAppError maps a service error to its status code. Storage failures
// hide their cause from the client.
func writeAppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	message := apperr.Message(err)
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = apperr.KindStorage
		message = "internal error"
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
			Kind:   string(kind),
		},
	})
}

// writeMutation reports an add, modify or delete. A persistence warning is
// passed through to the caller.
func writeMutation(w http.ResponseWriter, status int, m *service.Mutation) {
	data := map[string]any{
		"id":      m.ID,
		"changed": m.Changed,
	}
	if m.Generated != nil {
		data["generated"] = m.Generated
	}
	if m.Warning != "" {
		data["warning"] = m.Warning
	}
	writeJSON(w, status, data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
