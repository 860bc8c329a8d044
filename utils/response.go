package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Stack      string      `json:"stack,omitempty"`
}

// Pagination describes a page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// NewPagination fills Pages from total and limit.
func NewPagination(page, limit int, total int64) *Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// JSON writes body with status.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// OK writes a 200 envelope with data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 envelope with data and a message.
func Created(w http.ResponseWriter, message string, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Message writes a 200 envelope carrying only a message.
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// Paginated writes a 200 envelope with a page of data.
func Paginated(w http.ResponseWriter, data interface{}, p *Pagination) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}
