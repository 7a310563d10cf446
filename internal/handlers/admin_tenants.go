package handlers

import (
	"net/http"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/services"
)

func (h *AdminHandlers) listTenants(w http.ResponseWriter, r *http.Request) {
	if h.tenants == nil {
		unavailable(w, r, "tenant")
		return
	}
	pager, ok := parsePagination(w, r)
	if !ok {
		return
	}
	status := domain.TenantStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	page, err := h.tenants.ListTenants(r.Context(), services.TenantListFilter{Status: status, Pagination: pager})
	if err != nil {
		writeServiceError(w, r, err, "tenant")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newTenantResponse))
}

func (h *AdminHandlers) getTenant(w http.ResponseWriter, r *http.Request) {
	if h.tenants == nil {
		unavailable(w, r, "tenant")
		return
	}
	tenant, err := h.tenants.GetTenant(r.Context(), pathID(r, "tenantID"))
	if err != nil {
		writeServiceError(w, r, err, "tenant")
		return
	}
	writeJSON(w, http.StatusOK, newTenantResponse(tenant))
}

func (h *AdminHandlers) createTenant(w http.ResponseWriter, r *http.Request) {
	h.saveTenant(w, r, "")
}

func (h *AdminHandlers) updateTenant(w http.ResponseWriter, r *http.Request) {
	h.saveTenant(w, r, pathID(r, "tenantID"))
}

func (h *AdminHandlers) saveTenant(w http.ResponseWriter, r *http.Request, tenantID string) {
	if h.tenants == nil {
		unavailable(w, r, "tenant")
		return
	}
	var req tenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var (
		tenant services.Tenant
		err    error
	)
	if tenantID == "" {
		tenant, err = h.tenants.CreateTenant(r.Context(), req.toInput())
	} else {
		tenant, err = h.tenants.UpdateTenant(r.Context(), tenantID, req.toInput())
	}
	if err != nil {
		writeServiceError(w, r, err, "tenant")
		return
	}
	writeJSON(w, savedStatus(r), newTenantResponse(tenant))
}

func (h *AdminHandlers) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if h.tenants == nil {
		unavailable(w, r, "tenant")
		return
	}
	if err := h.tenants.DeleteTenant(r.Context(), pathID(r, "tenantID")); err != nil {
		writeServiceError(w, r, err, "tenant")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
