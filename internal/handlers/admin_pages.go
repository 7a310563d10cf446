package handlers

import (
	"net/http"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/services"
)

func parsePageListFilter(w http.ResponseWriter, r *http.Request) (services.PageListFilter, bool) {
	pager, ok := parsePagination(w, r)
	if !ok {
		return services.PageListFilter{}, false
	}
	return services.PageListFilter{
		Status:     domain.PageStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))),
		Pagination: pager,
	}, true
}

func (h *AdminHandlers) listStaticPages(w http.ResponseWriter, r *http.Request) {
	if h.staticPages == nil {
		unavailable(w, r, "static page")
		return
	}
	filter, ok := parsePageListFilter(w, r)
	if !ok {
		return
	}
	page, err := h.staticPages.ListStaticPages(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "static_page")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newStaticPageResponse))
}

func (h *AdminHandlers) getStaticPage(w http.ResponseWriter, r *http.Request) {
	if h.staticPages == nil {
		unavailable(w, r, "static page")
		return
	}
	page, err := h.staticPages.GetStaticPage(r.Context(), pathID(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "static_page")
		return
	}
	writeJSON(w, http.StatusOK, newStaticPageResponse(page))
}

func (h *AdminHandlers) createStaticPage(w http.ResponseWriter, r *http.Request) {
	h.saveStaticPage(w, r, "")
}

func (h *AdminHandlers) updateStaticPage(w http.ResponseWriter, r *http.Request) {
	h.saveStaticPage(w, r, pathID(r, "id"))
}

func (h *AdminHandlers) saveStaticPage(w http.ResponseWriter, r *http.Request, pageID string) {
	if h.staticPages == nil {
		unavailable(w, r, "static page")
		return
	}
	var req staticPageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var page services.StaticPage
	if pageID == "" {
		page, err = h.staticPages.CreateStaticPage(r.Context(), input)
	} else {
		page, err = h.staticPages.UpdateStaticPage(r.Context(), pageID, input)
	}
	if err != nil {
		writeServiceError(w, r, err, "static_page")
		return
	}
	writeJSON(w, savedStatus(r), newStaticPageResponse(page))
}

func (h *AdminHandlers) deleteStaticPage(w http.ResponseWriter, r *http.Request) {
	if h.staticPages == nil {
		unavailable(w, r, "static page")
		return
	}
	if err := h.staticPages.DeleteStaticPage(r.Context(), pathID(r, "id")); err != nil {
		writeServiceError(w, r, err, "static_page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) publishStaticPage(w http.ResponseWriter, r *http.Request) {
	if h.staticPages == nil {
		unavailable(w, r, "static page")
		return
	}
	h.writeStaticPage(w, r)(h.staticPages.PublishStaticPage(r.Context(), pathID(r, "id")))
}

func (h *AdminHandlers) unpublishStaticPage(w http.ResponseWriter, r *http.Request) {
	if h.staticPages == nil {
		unavailable(w, r, "static page")
		return
	}
	h.writeStaticPage(w, r)(h.staticPages.UnpublishStaticPage(r.Context(), pathID(r, "id")))
}

func (h *AdminHandlers) writeStaticPage(w http.ResponseWriter, r *http.Request) func(services.StaticPage, error) {
	return func(page services.StaticPage, err error) {
		if err != nil {
			writeServiceError(w, r, err, "static_page")
			return
		}
		writeJSON(w, http.StatusOK, newStaticPageResponse(page))
	}
}

func (h *AdminHandlers) listDynamicPages(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	filter, ok := parsePageListFilter(w, r)
	if !ok {
		return
	}
	page, err := h.dynamicPages.ListDynamicPages(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "dynamic_page")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newDynamicPageResponse))
}

func (h *AdminHandlers) getDynamicPage(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	page, err := h.dynamicPages.GetDynamicPage(r.Context(), pathID(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "dynamic_page")
		return
	}
	writeJSON(w, http.StatusOK, newDynamicPageResponse(page))
}

func (h *AdminHandlers) createDynamicPage(w http.ResponseWriter, r *http.Request) {
	h.saveDynamicPage(w, r, "")
}

func (h *AdminHandlers) updateDynamicPage(w http.ResponseWriter, r *http.Request) {
	h.saveDynamicPage(w, r, pathID(r, "id"))
}

func (h *AdminHandlers) saveDynamicPage(w http.ResponseWriter, r *http.Request, pageID string) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	var req dynamicPageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var page services.DynamicPage
	if pageID == "" {
		page, err = h.dynamicPages.CreateDynamicPage(r.Context(), input)
	} else {
		page, err = h.dynamicPages.UpdateDynamicPage(r.Context(), pageID, input)
	}
	if err != nil {
		writeServiceError(w, r, err, "dynamic_page")
		return
	}
	writeJSON(w, savedStatus(r), newDynamicPageResponse(page))
}

func (h *AdminHandlers) deleteDynamicPage(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	if err := h.dynamicPages.DeleteDynamicPage(r.Context(), pathID(r, "id")); err != nil {
		writeServiceError(w, r, err, "dynamic_page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) publishDynamicPage(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	h.writeDynamicPage(w, r, http.StatusOK)(h.dynamicPages.PublishDynamicPage(r.Context(), pathID(r, "id")))
}

func (h *AdminHandlers) unpublishDynamicPage(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	h.writeDynamicPage(w, r, http.StatusOK)(h.dynamicPages.UnpublishDynamicPage(r.Context(), pathID(r, "id")))
}

func (h *AdminHandlers) addSegment(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	var req segmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	h.writeDynamicPage(w, r, http.StatusCreated)(h.dynamicPages.AddSegment(r.Context(), pathID(r, "id"), req.toInput()))
}

func (h *AdminHandlers) updateSegment(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	var req segmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	h.writeDynamicPage(w, r, http.StatusOK)(h.dynamicPages.UpdateSegment(r.Context(), pathID(r, "id"), pathID(r, "segmentID"), req.toInput()))
}

func (h *AdminHandlers) removeSegment(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	h.writeDynamicPage(w, r, http.StatusOK)(h.dynamicPages.RemoveSegment(r.Context(), pathID(r, "id"), pathID(r, "segmentID")))
}

func (h *AdminHandlers) reorderSegments(w http.ResponseWriter, r *http.Request) {
	if h.dynamicPages == nil {
		unavailable(w, r, "dynamic page")
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	h.writeDynamicPage(w, r, http.StatusOK)(h.dynamicPages.ReorderSegments(r.Context(), pathID(r, "id"), req.IDs))
}

// writeDynamicPage returns a sink for the (page, error) result of a dynamic page operation.
func (h *AdminHandlers) writeDynamicPage(w http.ResponseWriter, r *http.Request, status int) func(services.DynamicPage, error) {
	return func(page services.DynamicPage, err error) {
		if err != nil {
			writeServiceError(w, r, err, "dynamic_page")
			return
		}
		writeJSON(w, status, newDynamicPageResponse(page))
	}
}
