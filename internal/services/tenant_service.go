package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/repositories"
)

const (
	defaultTenantLocale = "en"
	maxTenantDomains    = 20
)

var (
	tenantErrors = newResourceErrors("tenant")

	// ErrTenantInvalidInput indicates the tenant payload failed validation.
	ErrTenantInvalidInput = tenantErrors.invalid
	// ErrTenantNotFound indicates no tenant matched the request.
	ErrTenantNotFound = tenantErrors.notFound
	// ErrTenantConflict indicates an ID or domain is already taken.
	ErrTenantConflict = tenantErrors.conflict

	tenantIDPattern = regexp.MustCompile(`^[a-z0-9-]{2,63}$`)
)

// TenantServiceDeps wires the tenant service.
type TenantServiceDeps struct {
	Tenants repositories.TenantRepository
	// StaticHosts maps request hosts to tenant IDs ahead of the domain lookup.
	StaticHosts map[string]string
	Clock       func() time.Time
	Logger      EventLogger
}

type tenantService struct {
	repo   repositories.TenantRepository
	hosts  map[string]string
	clock  func() time.Time
	logger EventLogger
}

// NewTenantService constructs the tenant service.
func NewTenantService(deps TenantServiceDeps) (TenantService, error) {
	if deps.Tenants == nil {
		return nil, errors.New("tenant service: tenant repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	hosts := make(map[string]string, len(deps.StaticHosts))
	for host, tenantID := range deps.StaticHosts {
		if h := normalizeHost(host); h != "" {
			hosts[h] = strings.TrimSpace(tenantID)
		}
	}
	return &tenantService{
		repo:   deps.Tenants,
		hosts:  hosts,
		clock:  func() time.Time { return clock().UTC() },
		logger: logger,
	}, nil
}

func (s *tenantService) CreateTenant(ctx context.Context, input TenantInput) (Tenant, error) {
	tenantID := strings.ToLower(strings.TrimSpace(input.ID))
	if !tenantIDPattern.MatchString(tenantID) {
		return Tenant{}, tenantErrors.invalidf("id must match %s", tenantIDPattern)
	}
	tenant, err := s.normalize(input)
	if err != nil {
		return Tenant{}, err
	}
	if err := s.ensureDomainsFree(ctx, tenantID, tenant.Domains); err != nil {
		return Tenant{}, err
	}
	now := s.clock()
	tenant.ID = tenantID
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	if err := s.repo.Insert(ctx, tenant); err != nil {
		return Tenant{}, tenantErrors.mapRepo(err)
	}
	s.logger(ctx, "tenant.created", map[string]any{"tenantId": tenantID, "domains": tenant.Domains})
	return tenant, nil
}

func (s *tenantService) UpdateTenant(ctx context.Context, tenantID string, input TenantInput) (Tenant, error) {
	existing, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return Tenant{}, err
	}
	tenant, err := s.normalize(input)
	if err != nil {
		return Tenant{}, err
	}
	if err := s.ensureDomainsFree(ctx, existing.ID, tenant.Domains); err != nil {
		return Tenant{}, err
	}
	tenant.ID = existing.ID
	tenant.CreatedAt = existing.CreatedAt
	tenant.UpdatedAt = s.clock()
	if err := s.repo.Update(ctx, tenant); err != nil {
		return Tenant{}, tenantErrors.mapRepo(err)
	}
	if existing.Status != tenant.Status {
		s.logger(ctx, "tenant.status_changed", map[string]any{
			"tenantId": tenant.ID,
			"from":     string(existing.Status),
			"to":       string(tenant.Status),
		})
	}
	return tenant, nil
}

func (s *tenantService) GetTenant(ctx context.Context, tenantID string) (Tenant, error) {
	tenantID = strings.ToLower(strings.TrimSpace(tenantID))
	if tenantID == "" {
		return Tenant{}, tenantErrors.invalidf("tenant id is required")
	}
	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return Tenant{}, tenantErrors.mapRepo(err)
	}
	return tenant, nil
}

func (s *tenantService) ListTenants(ctx context.Context, filter TenantListFilter) (domain.CursorPage[Tenant], error) {
	if filter.Status != "" && !validTenantStatus(filter.Status) {
		return domain.CursorPage[Tenant]{}, tenantErrors.invalidf("unknown status %q", filter.Status)
	}
	page, err := s.repo.List(ctx, repositories.TenantListFilter{Status: filter.Status, Pagination: filter.Pagination})
	if err != nil {
		return domain.CursorPage[Tenant]{}, tenantErrors.mapRepo(err)
	}
	return page, nil
}

func (s *tenantService) DeleteTenant(ctx context.Context, tenantID string) error {
	tenantID = strings.ToLower(strings.TrimSpace(tenantID))
	if tenantID == "" {
		return tenantErrors.invalidf("tenant id is required")
	}
	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return tenantErrors.mapRepo(err)
	}
	s.logger(ctx, "tenant.deleted", map[string]any{"tenantId": tenantID})
	return nil
}

// ResolveTenant finds the tenant of a request. An explicit header value wins over the host;
// the host is checked against the static map before the stored tenant domains.
func (s *tenantService) ResolveTenant(ctx context.Context, host, headerValue string) (Tenant, error) {
	if id := strings.TrimSpace(headerValue); id != "" {
		return s.GetTenant(ctx, id)
	}
	host = normalizeHost(host)
	if host == "" {
		return Tenant{}, fmt.Errorf("%w: no tenant header or host", ErrTenantNotFound)
	}
	if id, ok := s.hosts[host]; ok {
		return s.GetTenant(ctx, id)
	}
	tenant, err := s.repo.FindByDomain(ctx, host)
	if err != nil {
		return Tenant{}, tenantErrors.mapRepo(err)
	}
	return tenant, nil
}

func (s *tenantService) normalize(input TenantInput) (Tenant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Tenant{}, tenantErrors.invalidf("name is required")
	}

	locale := strings.TrimSpace(input.DefaultLocale)
	if locale == "" {
		locale = defaultTenantLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Tenant{}, tenantErrors.invalidf("default locale %q is not a BCP 47 tag", locale)
	}

	status := input.Status
	if status == "" {
		status = domain.TenantStatusActive
	}
	if !validTenantStatus(status) {
		return Tenant{}, tenantErrors.invalidf("unknown status %q", status)
	}

	if len(input.Domains) > maxTenantDomains {
		return Tenant{}, tenantErrors.invalidf("at most %d domains are allowed", maxTenantDomains)
	}
	domains := make([]string, 0, len(input.Domains))
	seen := make(map[string]struct{}, len(input.Domains))
	for _, raw := range input.Domains {
		host := normalizeHost(raw)
		if host == "" || strings.ContainsAny(host, "/ ") {
			return Tenant{}, tenantErrors.invalidf("invalid domain %q", raw)
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		domains = append(domains, host)
	}

	return Tenant{
		Name:          name,
		Domains:       domains,
		DefaultLocale: tag.String(),
		Status:        status,
	}, nil
}

func (s *tenantService) ensureDomainsFree(ctx context.Context, tenantID string, domains []string) error {
	for _, host := range domains {
		if _, static := s.hosts[host]; static && s.hosts[host] != tenantID {
			return tenantErrors.conflictf("domain %s is reserved for tenant %s", host, s.hosts[host])
		}
		owner, err := s.repo.FindByDomain(ctx, host)
		switch {
		case err == nil && owner.ID != tenantID:
			return tenantErrors.conflictf("domain %s already belongs to tenant %s", host, owner.ID)
		case err != nil && !repositories.IsNotFound(err):
			return tenantErrors.mapRepo(err)
		}
	}
	return nil
}

func validTenantStatus(status domain.TenantStatus) bool {
	return status == domain.TenantStatusActive || status == domain.TenantStatusSuspended
}

// normalizeHost lowercases a host and strips any port and trailing dot.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
