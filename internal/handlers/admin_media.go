package handlers

import (
	"net/http"
	"strings"

	domain "github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/services"
)

func (h *AdminHandlers) listMedia(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		unavailable(w, r, "media")
		return
	}
	pager, ok := parsePagination(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	page, err := h.media.ListMedia(r.Context(), services.MediaListFilter{
		Folder:     query.Get("folder"),
		Status:     domain.MediaStatus(strings.ToLower(strings.TrimSpace(query.Get("status")))),
		Pagination: pager,
	})
	if err != nil {
		writeServiceError(w, r, err, "media")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newMediaAssetResponse))
}

func (h *AdminHandlers) issueUploadSignature(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		unavailable(w, r, "media")
		return
	}
	var req uploadSignatureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	signature, err := h.media.IssueUploadSignature(r.Context(), services.UploadSignatureCommand{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
		Folder:      req.Folder,
	})
	if err != nil {
		writeServiceError(w, r, err, "media")
		return
	}
	writeJSON(w, http.StatusCreated, newUploadSignatureResponse(signature))
}

func (h *AdminHandlers) completeUpload(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		unavailable(w, r, "media")
		return
	}
	var req completeUploadRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, r, err.Error())
			return
		}
	}
	asset, err := h.media.CompleteUpload(r.Context(), pathID(r, "id"), services.CompleteUploadCommand{PublicURL: req.PublicURL, Size: req.Size})
	if err != nil {
		writeServiceError(w, r, err, "media")
		return
	}
	writeJSON(w, http.StatusOK, newMediaAssetResponse(asset))
}

func (h *AdminHandlers) issueDownload(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		unavailable(w, r, "media")
		return
	}
	signed, err := h.media.IssueDownload(r.Context(), pathID(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "media")
		return
	}
	writeJSON(w, http.StatusOK, signedURLResponse{URL: signed.URL, Method: signed.Method, ExpiresAt: formatTimestamp(signed.ExpiresAt)})
}

func (h *AdminHandlers) deleteMedia(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		unavailable(w, r, "media")
		return
	}
	if err := h.media.DeleteMedia(r.Context(), pathID(r, "id")); err != nil {
		writeServiceError(w, r, err, "media")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		unavailable(w, r, "audit")
		return
	}
	pager, ok := parsePagination(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	page, err := h.audit.List(r.Context(), services.AuditLogFilter{
		TargetRef:  strings.TrimSpace(query.Get("targetRef")),
		Actor:      strings.TrimSpace(query.Get("actor")),
		Pagination: pager,
	})
	if err != nil {
		writeServiceError(w, r, err, "audit_log")
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(page, newAuditLogResponse))
}
