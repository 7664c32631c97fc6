package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketplace-messaging/messaging"
)

// Response represents a generic response
type Response struct {
	Success bool        `json:"success"`
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondWithError sends an error response
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, Response{
		Success: false,
		Status:  "error",
		Code:    code,
		Error:   msg,
	})
}

// RespondWithOk response
func RespondWithOk(w http.ResponseWriter, msg string) {
	RespondWithData(w, http.StatusOK, msg, nil)
}

// RespondWithData sends a success envelope around data
func RespondWithData(w http.ResponseWriter, code int, msg string, data interface{}) {
	RespondWithJSON(w, code, Response{
		Success: true,
		Status:  "success",
		Code:    code,
		Message: msg,
		Data:    data,
	})
}

// RespondWithFailure maps a messaging error to its status code and the
// message that is safe to show
func RespondWithFailure(w http.ResponseWriter, err error) {
	RespondWithError(w, StatusFor(err), messaging.UserMessage(err))
}

// StatusFor returns the HTTP status of a messaging error kind
func StatusFor(err error) int {
	switch {
	case errors.Is(err, messaging.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, messaging.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, messaging.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithJSON writes payload as json with the given status
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
