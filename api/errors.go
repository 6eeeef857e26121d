package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	errMethodNotAllowed = errors.New("api: method not allowed")
	errRouteNotFound    = errors.New("api: route not found")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func toHex16(w uint16) string {
	return fmt.Sprintf("%#04x", w)
}
