package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/service"
)

// ContentHandler serves the public site content and its admin editors.
type ContentHandler struct {
	content *service.ContentService
}

func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

func (h *ContentHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.content.ListServices(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve services")
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *ContentHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var svc domain.Service
	if !decodeJSON(w, r, &svc) {
		return
	}
	svc.ID = ""
	if err := h.content.CreateService(r.Context(), &svc); err != nil {
		respondError(w, r, err, "Failed to create service")
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *ContentHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var svc domain.Service
	if !decodeJSON(w, r, &svc) {
		return
	}
	svc.ID = chi.URLParam(r, "id")
	if err := h.content.UpdateService(r.Context(), &svc); err != nil {
		respondError(w, r, err, "Failed to update service")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *ContentHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, "Failed to delete service")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.content.ListProducts(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve SaaS products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ContentHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.SaasProduct
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = ""
	if err := h.content.CreateProduct(r.Context(), &p); err != nil {
		respondError(w, r, err, "Failed to create SaaS product")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ContentHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.SaasProduct
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if err := h.content.UpdateProduct(r.Context(), &p); err != nil {
		respondError(w, r, err, "Failed to update SaaS product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ContentHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, "Failed to delete SaaS product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) About(w http.ResponseWriter, r *http.Request) {
	about, err := h.content.About(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve about content")
		return
	}
	writeJSON(w, http.StatusOK, about)
}

func (h *ContentHandler) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	var about domain.AboutContent
	if !decodeJSON(w, r, &about) {
		return
	}
	if err := h.content.UpdateAbout(r.Context(), &about); err != nil {
		respondError(w, r, err, "Failed to update about content")
		return
	}
	writeJSON(w, http.StatusOK, about)
}

// Integrations returns the full settings, secrets included. Admin only.
func (h *ContentHandler) Integrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.content.Integrations(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve social integrations")
		return
	}
	writeJSON(w, http.StatusOK, integrations)
}

func (h *ContentHandler) UpdateIntegrations(w http.ResponseWriter, r *http.Request) {
	var integrations domain.SocialIntegrations
	if !decodeJSON(w, r, &integrations) {
		return
	}
	if err := h.content.UpdateIntegrations(r.Context(), &integrations); err != nil {
		respondError(w, r, err, "Failed to update social integrations")
		return
	}
	writeJSON(w, http.StatusOK, integrations)
}

// TrackingConfig is the public, secret-free view of the integrations.
func (h *ContentHandler) TrackingConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.content.TrackingConfig(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve tracking config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
