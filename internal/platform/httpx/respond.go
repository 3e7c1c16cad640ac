// Package httpx provides JSON response helpers shared by all HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Pagination describes paging metadata on list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Envelope is the wire format for every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// JSON sends a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// JSONList sends a success envelope carrying pagination metadata.
func JSONList(w http.ResponseWriter, status int, data any, pg Pagination) {
	write(w, status, Envelope{Success: true, Data: data, Pagination: &pg})
}

// Message sends a success envelope with a human-readable message and optional data.
func Message(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Fail sends a failure envelope with the given status code.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Message: message})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
