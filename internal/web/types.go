package web

import "time"

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the response for GET /healthz
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
