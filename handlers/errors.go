package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"task-management-service/logging"
	"task-management-service/services"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// not found -> 404, forbidden -> 403, validation -> 422, anything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
