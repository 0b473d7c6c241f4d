package json

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func ParseJSON(r *http.Request, model any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}

	return json.NewDecoder(r.Body).Decode(model)
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// Envelope is the common success wrapper returned by the web gateway.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data any) error {
	return WriteJSON(w, status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}
