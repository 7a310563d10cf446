package handlers

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quantum-portal/api/internal/platform/httpx"
	"github.com/quantum-portal/api/internal/platform/pagination"
	"github.com/quantum-portal/api/internal/services"
)

const maxRequestBody = 512 * 1024

var listLimits = pagination.Limits{Default: pagination.DefaultPageSize, Max: pagination.DefaultMaxPageSize}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a size limited JSON body and rejects unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", message, http.StatusBadRequest))
}

// writeServiceError maps the shared service error kinds onto the JSON error envelope.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrCategoryHasChildren):
		httpx.WriteError(ctx, w, httpx.NewError("category_has_children", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError(resource+"_not_found", fmt.Sprintf("%s not found", strings.ReplaceAll(resource, "_", " ")), http.StatusNotFound))
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(ctx, w, httpx.NewError(resource+"_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", err.Error(), http.StatusForbidden))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "a backing service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal error", http.StatusInternalServerError))
	}
}

func parsePagination(w http.ResponseWriter, r *http.Request) (services.Pagination, bool) {
	page, err := pagination.FromRequest(r, listLimits)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return services.Pagination{}, false
	}
	return page, true
}

func parseOptionalBool(r *http.Request, name string) (bool, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s must be a boolean", name)
	}
	return v, true, nil
}

// CachePolicy controls the Cache-Control header of public responses.
type CachePolicy struct {
	MaxAge               time.Duration
	StaleWhileRevalidate time.Duration
}

func (p CachePolicy) header() string {
	if p.MaxAge <= 0 {
		return "no-cache"
	}
	value := fmt.Sprintf("public, max-age=%d", int(p.MaxAge.Seconds()))
	if p.StaleWhileRevalidate > 0 {
		value += fmt.Sprintf(", stale-while-revalidate=%d", int(p.StaleWhileRevalidate.Seconds()))
	}
	return value
}

// writeCachedJSON writes payload with a weak ETag over its encoding and answers a matching
// If-None-Match with 304.
func writeCachedJSON(w http.ResponseWriter, r *http.Request, policy CachePolicy, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("internal_error", "encode response", http.StatusInternalServerError))
		return
	}
	etag := fmt.Sprintf("W/\"%x\"", sha256.Sum256(body))
	w.Header().Set("Cache-Control", policy.header())
	w.Header().Set("ETag", etag)
	w.Header().Add("Vary", "X-Tenant-ID")
	if matchesETag(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

func matchesETag(r *http.Request, etag string) bool {
	raw := r.Header.Get("If-None-Match")
	if etag == "" || strings.TrimSpace(raw) == "" {
		return false
	}
	for _, candidate := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "*" || trimmed == etag {
			return true
		}
	}
	return false
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func formatTimestampPtr(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return formatTimestamp(*ts)
}

func parseTimestamp(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	ts = ts.UTC()
	return &ts, nil
}
