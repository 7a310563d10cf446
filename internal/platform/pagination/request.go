package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
)

const (
	// DefaultPageSize applies when a request omits pageSize.
	DefaultPageSize = 50
	// DefaultMaxPageSize caps pageSize.
	DefaultMaxPageSize = 100
)

// ErrInvalidPageSize reports a pageSize that is not a positive integer.
var ErrInvalidPageSize = errors.New("pagination: invalid pageSize")

// Limits bounds the page size of one endpoint. Zero values fall back to the package defaults.
type Limits struct {
	Default int
	Max     int
}

func (l Limits) normalised() Limits {
	if l.Max <= 0 {
		l.Max = DefaultMaxPageSize
	}
	if l.Default <= 0 {
		l.Default = DefaultPageSize
	}
	if l.Default > l.Max {
		l.Default = l.Max
	}
	return l
}

// Clamp applies l to a requested size. Non-positive sizes take the default.
func (l Limits) Clamp(size int) int {
	l = l.normalised()
	switch {
	case size <= 0:
		return l.Default
	case size > l.Max:
		return l.Max
	}
	return size
}

// FromRequest reads pageSize and pageToken from the query string. Oversized pages are clamped;
// malformed values and tokens are rejected so the caller can answer 400.
func FromRequest(r *http.Request, limits Limits) (domain.Pagination, error) {
	if r == nil {
		return domain.Pagination{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), limits)
}

// Parse is FromRequest over already parsed query values.
func Parse(values url.Values, limits Limits) (domain.Pagination, error) {
	page := domain.Pagination{PageSize: limits.Clamp(0)}
	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return domain.Pagination{}, fmt.Errorf("%w: %q must be a positive integer", ErrInvalidPageSize, raw)
		}
		page.PageSize = limits.Clamp(size)
	}
	if raw := strings.TrimSpace(values.Get("pageToken")); raw != "" {
		if _, err := DecodeToken(raw); err != nil {
			return domain.Pagination{}, err
		}
		page.PageToken = raw
	}
	return page, nil
}

// Normalize clamps a page request coming from a service to the package defaults.
func Normalize(p domain.Pagination) domain.Pagination {
	p.PageSize = Limits{}.Clamp(p.PageSize)
	p.PageToken = strings.TrimSpace(p.PageToken)
	return p
}
