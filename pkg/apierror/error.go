// Package apierror writes JSON error bodies for HTTP handlers.
package apierror

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Detail  string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func WithDetail(status int, message, detail string) *Error {
	return &Error{Status: status, Message: message, Detail: detail}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// Write sends e as {"error": message} with its status code.
func Write(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}
