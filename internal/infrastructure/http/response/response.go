package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends an error response carrying err's message
func Error(w http.ResponseWriter, status int, err error) {
	Message(w, status, err.Error())
}

// Message sends an error response with a fixed detail message
func Message(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorResponse{
		Error:  errorType(status),
		Detail: detail,
	})
}

func errorType(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusRequestEntityTooLarge:
		return "request_entity_too_large"
	case http.StatusNotImplemented:
		return "not_implemented"
	case http.StatusInternalServerError:
		return "internal_server_error"
	}
	return "error"
}
