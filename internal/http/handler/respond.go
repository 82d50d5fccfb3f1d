package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"studio/internal/studio"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// storeError maps store sentinels at the handler boundary. Ownership
// violations already surface as ErrNotFound inside the store.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studio.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, studio.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func idParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}
