package utils

import (
	"encoding/json"
	"net/http"
	"time"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Field     string      `json:"field,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteError maps err onto a status code and writes the error envelope.
func WriteError(w http.ResponseWriter, message string, err error) int {
	status := HTTPStatus(err)
	resp := ErrorResponse(message, err.Error())
	if ve, ok := AsValidation(err); ok {
		resp.Field = ve.Field
		resp.Error = ve.Message
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}
	WriteJSON(w, status, resp)
	return status
}
