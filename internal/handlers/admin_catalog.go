package handlers

import (
	"net/http"
	"strings"

	"github.com/quantum-portal/api/internal/services"
)

func (h *AdminHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	pager, ok := parsePagination(w, r)
	if !ok {
		return
	}
	activeOnly, _, err := parseOptionalBool(r, "active")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	filter := services.CategoryListFilter{ActiveOnly: activeOnly, Pagination: pager}
	if values, ok := r.URL.Query()["parentId"]; ok {
		parent := strings.TrimSpace(values[0])
		filter.ParentID = &parent
	}
	page, err := h.categories.ListCategories(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newCategoryResponse))
}

func (h *AdminHandlers) categoryTree(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	activeOnly, _, err := parseOptionalBool(r, "active")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	tree, err := h.categories.CategoryTree(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": mapSlice(tree, newCategoryNodeResponse)})
}

func (h *AdminHandlers) getCategory(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	category, err := h.categories.GetCategory(r.Context(), pathID(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, newCategoryResponse(category))
}

func (h *AdminHandlers) categoryBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	trail, err := h.categories.Breadcrumbs(r.Context(), pathID(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"breadcrumbs": mapSlice(trail, newCategoryResponse)})
}

func (h *AdminHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, "")
}

func (h *AdminHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	h.saveCategory(w, r, pathID(r, "id"))
}

func (h *AdminHandlers) saveCategory(w http.ResponseWriter, r *http.Request, categoryID string) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var (
		category services.Category
		err      error
	)
	if categoryID == "" {
		category, err = h.categories.CreateCategory(r.Context(), req.toInput())
	} else {
		category, err = h.categories.UpdateCategory(r.Context(), categoryID, req.toInput())
	}
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, savedStatus(r), newCategoryResponse(category))
}

func (h *AdminHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if h.categories == nil {
		unavailable(w, r, "category")
		return
	}
	if err := h.categories.DeleteCategory(r.Context(), pathID(r, "id")); err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listBrands(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand")
		return
	}
	pager, ok := parsePagination(w, r)
	if !ok {
		return
	}
	featured, _, err := parseOptionalBool(r, "featured")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	active, _, err := parseOptionalBool(r, "active")
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	page, err := h.brands.ListBrands(r.Context(), services.BrandListFilter{FeaturedOnly: featured, ActiveOnly: active, Pagination: pager})
	if err != nil {
		writeServiceError(w, r, err, "brand")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newBrandResponse))
}

func (h *AdminHandlers) getBrand(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand")
		return
	}
	brand, err := h.brands.GetBrand(r.Context(), pathID(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "brand")
		return
	}
	writeJSON(w, http.StatusOK, newBrandResponse(brand))
}

func (h *AdminHandlers) createBrand(w http.ResponseWriter, r *http.Request) {
	h.saveBrand(w, r, "")
}

func (h *AdminHandlers) updateBrand(w http.ResponseWriter, r *http.Request) {
	h.saveBrand(w, r, pathID(r, "id"))
}

func (h *AdminHandlers) saveBrand(w http.ResponseWriter, r *http.Request, brandID string) {
	if h.brands == nil {
		unavailable(w, r, "brand")
		return
	}
	var req brandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	var (
		brand services.Brand
		err   error
	)
	if brandID == "" {
		brand, err = h.brands.CreateBrand(r.Context(), req.toInput())
	} else {
		brand, err = h.brands.UpdateBrand(r.Context(), brandID, req.toInput())
	}
	if err != nil {
		writeServiceError(w, r, err, "brand")
		return
	}
	writeJSON(w, savedStatus(r), newBrandResponse(brand))
}

func (h *AdminHandlers) deleteBrand(w http.ResponseWriter, r *http.Request) {
	if h.brands == nil {
		unavailable(w, r, "brand")
		return
	}
	if err := h.brands.DeleteBrand(r.Context(), pathID(r, "id")); err != nil {
		writeServiceError(w, r, err, "brand")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
