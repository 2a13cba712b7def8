package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors dto.ErrorResponse so middleware and handler errors share one shape.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeErrorJSON writes the API error envelope {"error": ..., "code": ...}.
func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: message,
		Code:  code,
	})
}
