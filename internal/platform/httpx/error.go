// Package httpx holds the JSON error envelope shared by handlers and middleware.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/quantum-portal/api/internal/platform/requestctx"
)

const (
	codeLimit    = 80
	messageLimit = 512
	idLimit      = 80
)

// Error is the body of every non-2xx API response:
//
//	{"error": "category_not_found", "message": "...", "status": 404, "request_id": "...", "trace_id": "...", "tenant_id": "..."}
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

// NewError builds an envelope. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    clean(code, codeLimit),
		Message: clean(message, messageLimit),
		Status:  status,
	}
}

// WithDetail attaches one extra top-level field. Reserved envelope keys are ignored.
func (e Error) WithDetail(key string, value any) Error {
	switch key {
	case "", "error", "message", "status", "request_id", "trace_id", "tenant_id":
		return e
	}
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// WriteError renders err. Request, trace and tenant identifiers are taken from ctx when present.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	payload := make(map[string]any, len(err.Details)+6)
	for k, v := range err.Details {
		payload[k] = v
	}
	payload["error"] = err.Code
	payload["message"] = err.Message
	payload["status"] = status
	if id := clean(middleware.GetReqID(ctx), idLimit); id != "" {
		payload["request_id"] = id
	}
	if id := clean(requestctx.TraceID(ctx), idLimit); id != "" {
		payload["trace_id"] = id
	}
	if tenantID, ok := requestctx.TenantID(ctx); ok {
		payload["tenant_id"] = clean(tenantID, idLimit)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// clean flattens control characters to spaces and truncates on a rune boundary.
func clean(value string, limit int) string {
	value = strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value))
	if len(value) <= limit {
		return value
	}
	cut := 0
	for i := range value {
		if i > limit {
			break
		}
		cut = i
	}
	return value[:cut]
}
