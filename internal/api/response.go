package api

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var responseJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorBody is the body of gateway-generated failures that never reached
// the backend, such as unknown routes.
type ErrorBody struct {
	Message string `json:"message"`
}

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := responseJSON.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Internal server error: %v", err)
		return
	}
	writeRaw(w, status, body)
}

// writeRaw writes an already encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
