// Package httpjson holds the small JSON response helpers the teacher's
// server package defined inline; factored out because the expanded route
// table (spec §6) is split across several handler files.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Write encodes payload as JSON with the given status code.
func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

// Error writes {"error": msg} with the given status code.
func Error(w http.ResponseWriter, status int, err error) {
	Write(w, status, map[string]any{"error": err.Error()})
}
