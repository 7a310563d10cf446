package handlers

import (
	"net/http"

	"github.com/quantum-portal/api/internal/services"
)

func (h *AdminHandlers) listMenus(w http.ResponseWriter, r *http.Request) {
	if h.navigation == nil {
		unavailable(w, r, "navigation")
		return
	}
	pager, ok := parsePagination(w, r)
	if !ok {
		return
	}
	page, err := h.navigation.ListMenus(r.Context(), pager)
	if err != nil {
		writeServiceError(w, r, err, "navigation_menu")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newNavigationMenuResponse))
}

func (h *AdminHandlers) getMenu(w http.ResponseWriter, r *http.Request) {
	if h.navigation == nil {
		unavailable(w, r, "navigation")
		return
	}
	menu, err := h.navigation.GetMenu(r.Context(), pathID(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "navigation_menu")
		return
	}
	writeJSON(w, http.StatusOK, newNavigationMenuResponse(menu))
}

func (h *AdminHandlers) createMenu(w http.ResponseWriter, r *http.Request) {
	h.saveMenu(w, r, "")
}

func (h *AdminHandlers) updateMenu(w http.ResponseWriter, r *http.Request) {
	h.saveMenu(w, r, pathID(r, "id"))
}

func (h *AdminHandlers) saveMenu(w http.ResponseWriter, r *http.Request, menuID string) {
	if h.navigation == nil {
		unavailable(w, r, "navigation")
		return
	}
	var req navigationMenuRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var (
		menu services.NavigationMenu
		err  error
	)
	if menuID == "" {
		menu, err = h.navigation.CreateMenu(r.Context(), req.toInput())
	} else {
		menu, err = h.navigation.UpdateMenu(r.Context(), menuID, req.toInput())
	}
	if err != nil {
		writeServiceError(w, r, err, "navigation_menu")
		return
	}
	writeJSON(w, savedStatus(r), newNavigationMenuResponse(menu))
}

func (h *AdminHandlers) deleteMenu(w http.ResponseWriter, r *http.Request) {
	if h.navigation == nil {
		unavailable(w, r, "navigation")
		return
	}
	if err := h.navigation.DeleteMenu(r.Context(), pathID(r, "id")); err != nil {
		writeServiceError(w, r, err, "navigation_menu")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listSections(w http.ResponseWriter, r *http.Request) {
	if h.homepage == nil {
		unavailable(w, r, "homepage")
		return
	}
	sections, err := h.homepage.ListSections(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "homepage_section")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": mapSlice(sections, newHomepageSectionResponse)})
}

func (h *AdminHandlers) createSection(w http.ResponseWriter, r *http.Request) {
	h.saveSection(w, r, "")
}

func (h *AdminHandlers) updateSection(w http.ResponseWriter, r *http.Request) {
	h.saveSection(w, r, pathID(r, "id"))
}

func (h *AdminHandlers) saveSection(w http.ResponseWriter, r *http.Request, sectionID string) {
	if h.homepage == nil {
		unavailable(w, r, "homepage")
		return
	}
	var req homepageSectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var (
		section services.HomepageSection
		err     error
	)
	if sectionID == "" {
		section, err = h.homepage.CreateSection(r.Context(), req.toInput())
	} else {
		section, err = h.homepage.UpdateSection(r.Context(), sectionID, req.toInput())
	}
	if err != nil {
		writeServiceError(w, r, err, "homepage_section")
		return
	}
	writeJSON(w, savedStatus(r), newHomepageSectionResponse(section))
}

func (h *AdminHandlers) deleteSection(w http.ResponseWriter, r *http.Request) {
	if h.homepage == nil {
		unavailable(w, r, "homepage")
		return
	}
	if err := h.homepage.DeleteSection(r.Context(), pathID(r, "id")); err != nil {
		writeServiceError(w, r, err, "homepage_section")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) reorderSections(w http.ResponseWriter, r *http.Request) {
	if h.homepage == nil {
		unavailable(w, r, "homepage")
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	sections, err := h.homepage.ReorderSections(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, err, "homepage_section")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": mapSlice(sections, newHomepageSectionResponse)})
}

func (h *AdminHandlers) setSectionVisibility(w http.ResponseWriter, r *http.Request) {
	if h.homepage == nil {
		unavailable(w, r, "homepage")
		return
	}
	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if req.IsVisible == nil {
		writeBadRequest(w, r, "isVisible is required")
		return
	}
	section, err := h.homepage.SetVisibility(r.Context(), pathID(r, "id"), *req.IsVisible)
	if err != nil {
		writeServiceError(w, r, err, "homepage_section")
		return
	}
	writeJSON(w, http.StatusOK, newHomepageSectionResponse(section))
}
