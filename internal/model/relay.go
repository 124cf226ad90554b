// Package model defines shared types for the relay.
package model

import (
	"io"
	"net/http"
)

// RelayResponse represents a backend response handed back to the translation layer.
type RelayResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// BackendError is the JSON error body the OfflineTube backend emits on
// non-2xx responses. Detail is a pointer so that "field present" and
// "field absent" stay distinguishable after decoding.
type BackendError struct {
	Detail *string `json:"detail"`
}

// Message returns the backend's detail string, or fallback when the
// field was absent or empty.
func (e *BackendError) Message(fallback string) string {
	if e.Detail == nil || *e.Detail == "" {
		return fallback
	}
	return *e.Detail
}
