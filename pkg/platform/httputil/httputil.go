// Package httputil holds the JSON response helpers shared by HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vatcheck/pkg/domain-errors"
)

// WriteJSON writes v as a JSON body with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a JSON error envelope. Internal errors
// never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	msg := ""
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		msg = de.Message
	}

	body := map[string]string{"error": string(code)}
	status := StatusFor(code)
	if status < http.StatusInternalServerError && msg != "" {
		body["error_description"] = msg
	}
	WriteJSON(w, status, body)
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
