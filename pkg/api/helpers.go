package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rgaa-audit/audit-manager/pkg/forms"
	"github.com/rgaa-audit/audit-manager/pkg/models"
	"github.com/rgaa-audit/audit-manager/pkg/store"
)

// maxBodyBytes bounds form submissions.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeViolations(w http.ResponseWriter, v forms.Violations) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": v})
}

// writeStoreError maps repository and model errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	var fieldErr *models.FieldError
	var violations forms.Violations
	switch {
	case errors.As(err, &violations):
		writeViolations(w, violations)
	case errors.As(err, &fieldErr):
		writeViolations(w, forms.Violations{fieldErr.Field: {fieldErr.Message}})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrReferenced):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, forms.ErrBind), errors.Is(err, models.ErrInvalidEnum),
		errors.Is(err, models.ErrInvalidDocument), errors.Is(err, models.ErrInvalid),
		errors.Is(err, store.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// idParam parses the URL parameter name as a row id.
func idParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// decodeValues reads a JSON object body as form values.
func decodeValues(w http.ResponseWriter, r *http.Request) (forms.Values, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return forms.ValuesFromJSON(body)
}
