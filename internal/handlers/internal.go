package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantum-portal/api/internal/services"
)

// InternalHandlers serves routes called by Cloud Scheduler. Authentication is applied by the
// router's internal middleware.
type InternalHandlers struct {
	publishing services.PublishingService
	clock      func() time.Time
}

// NewInternalHandlers constructs internal handlers. A nil clock uses time.Now.
func NewInternalHandlers(publishing services.PublishingService, clock func() time.Time) *InternalHandlers {
	if clock == nil {
		clock = time.Now
	}
	return &InternalHandlers{publishing: publishing, clock: clock}
}

// Routes registers internal endpoints.
func (h *InternalHandlers) Routes(r chi.Router) {
	r.Post("/publishing:run", h.runPublishing)
}

func (h *InternalHandlers) runPublishing(w http.ResponseWriter, r *http.Request) {
	if h.publishing == nil {
		unavailable(w, r, "publishing")
		return
	}
	result, err := h.publishing.PublishDue(r.Context(), h.clock())
	if err != nil {
		writeServiceError(w, r, err, "publishing")
		return
	}
	writeJSON(w, http.StatusOK, publishResultResponse{
		Tenants:      result.Tenants,
		StaticPages:  result.StaticPages,
		DynamicPages: result.DynamicPages,
		Failures:     result.Failures,
	})
}

// WebhookHandlers receives provider callbacks. Signatures are checked by the router's webhook
// middleware.
type WebhookHandlers struct {
	media services.MediaService
}

// NewWebhookHandlers constructs webhook handlers.
func NewWebhookHandlers(media services.MediaService) *WebhookHandlers {
	return &WebhookHandlers{media: media}
}

// Routes registers webhook endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	r.Post("/media/uploads", h.mediaUploaded)
}

func (h *WebhookHandlers) mediaUploaded(w http.ResponseWriter, r *http.Request) {
	if h.media == nil {
		unavailable(w, r, "media")
		return
	}
	var req mediaWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	asset, err := h.media.HandleUploadWebhook(r.Context(), services.MediaUploadEvent{
		TenantID:  req.TenantID,
		AssetID:   req.AssetID,
		PublicURL: req.PublicURL,
	})
	if err != nil {
		writeServiceError(w, r, err, "media")
		return
	}
	writeJSON(w, http.StatusOK, newMediaAssetResponse(asset))
}
