package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"firepoz-backend/internal/apperr"
	"firepoz-backend/internal/db"
	"github.com/go-chi/chi/v5"
)

const maxImageBytes = 64 << 20

// StoreHandler exports, replaces and clears the whole store image.
type StoreHandler struct {
	Accessor *db.Accessor
}

func (h StoreHandler) RegisterRoutes(r chi.Router) {
	r.Get("/store/image", h.export)
	r.Put("/store/image", h.replace)
	r.Delete("/store", h.clear)
}

func (h StoreHandler) export(w http.ResponseWriter, r *http.Request) {
	st, err := h.Accessor.Get(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	image, err := st.Export(r.Context())
	if err != nil {
		writeAppError(w, apperr.Storage(err, "export store"))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(image)))
	w.Header().Set("Content-Disposition", `attachment; filename="store.db"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}

func (h StoreHandler) replace(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	data := map[string]any{"changed": true, "bytes": len(image)}
	if err := h.Accessor.Replace(r.Context(), image); err != nil {
		if apperr.KindOf(err) != "" {
			writeAppError(w, err)
			return
		}
		data["warning"] = err.Error()
	}
	writeJSON(w, http.StatusOK, data)
}

func (h StoreHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Accessor.Clear(r.Context()); err != nil {
		writeAppError(w, apperr.Storage(err, "clear store"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": true})
}
