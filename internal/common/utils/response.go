// internal/common/utils/response.go
// Standardized API responses ensure consistency across all endpoints

package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the standard API envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RespondWithJSON sends a JSON response with the specified status code and payload
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"Error marshaling JSON"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithData wraps data in a success envelope
func RespondWithData(w http.ResponseWriter, code int, data interface{}) {
	RespondWithJSON(w, code, Response{Success: true, Data: data})
}

// RespondWithMessage sends a success envelope carrying only a message
func RespondWithMessage(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, Response{Success: true, Message: message})
}

// RespondWithError sends an error envelope with the specified status code and message
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, Response{Success: false, Error: message})
}
