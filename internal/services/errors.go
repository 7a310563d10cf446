package services

import (
	"errors"
	"fmt"

	"github.com/quantum-portal/api/internal/platform/pagination"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/repositories"
)

// Error kinds shared by every service. Resource specific sentinels wrap one of these so
// transports can map errors with errors.Is without knowing each resource.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")
)

func kindError(resource string, kind error) error {
	return fmt.Errorf("%s: %w", resource, kind)
}

// resourceErrors groups the sentinels of one resource.
type resourceErrors struct {
	invalid  error
	notFound error
	conflict error
}

func newResourceErrors(resource string) resourceErrors {
	return resourceErrors{
		invalid:  kindError(resource, ErrInvalidInput),
		notFound: kindError(resource, ErrNotFound),
		conflict: kindError(resource, ErrConflict),
	}
}

func (e resourceErrors) invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{e.invalid}, args...)...)
}

func (e resourceErrors) conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{e.conflict}, args...)...)
}

// mapRepo classifies repository failures into the resource sentinels.
func (e resourceErrors) mapRepo(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return fmt.Errorf("%w: %v", e.invalid, err)
	case errors.Is(err, requestctx.ErrNoTenant):
		return fmt.Errorf("%w: %v", e.invalid, err)
	case repositories.IsNotFound(err):
		return fmt.Errorf("%w: %v", e.notFound, err)
	case repositories.IsConflict(err):
		return fmt.Errorf("%w: %v", e.conflict, err)
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
