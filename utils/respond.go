package utils

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// HTTPError is a failure with a designated status code. The message is
// safe to surface to the end user.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Error taxonomy: invalid input (400), unauthenticated (401), forbidden
// (403), not found (404). Everything else renders as a 500.
func InvalidInput(message string) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: message}
}

func Unauthenticated(message string) *HTTPError {
	return &HTTPError{Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string) *HTTPError {
	return &HTTPError{Status: http.StatusForbidden, Message: message}
}

func NotFound(message string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: message}
}

// WriteJSON writes v as a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// WriteError renders err as {"message": ...}. Unclassified errors become a
// 500 with a generic message; the cause is logged, not leaked.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		WriteJSON(w, httpErr.Status, map[string]string{"message": httpErr.Message})
		return
	}
	log.Printf("internal error: %v", err)
	WriteJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
}
