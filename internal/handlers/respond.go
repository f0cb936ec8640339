package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/svsh/linkup-server/internal/models"
)

// writeJSON writes data with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeEnvelope mirrors the envelope's status code onto the HTTP response.
func writeEnvelope(w http.ResponseWriter, env *models.Envelope) {
	writeJSON(w, env.StatusCode, env)
}

// decodeJSON parses the request body into v, answering 400 on bad input.
// Unknown fields are ignored; request bodies share field names with the
// envelope and carry extras.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty request body"})
		return http.ErrBodyNotAllowed
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return err
	}
	return nil
}
