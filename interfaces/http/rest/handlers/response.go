package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	pkgerrors "catmenu/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// menuIDParam reads the raw {menuID} path segment. Range checks are left to
// the command so that every entry point reports them the same way.
func menuIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "menuID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.NewFieldValidationError("menu_id", "menu_id must be an integer").WithCause(err)
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return pkgerrors.NewValidationError("Invalid request body: " + err.Error())
	}
	return nil
}
