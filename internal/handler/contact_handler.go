package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/middleware"
	"mitaict-site/internal/service"
)

type ContactHandler struct {
	contacts *service.ContactService
	now      func() time.Time
}

func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts, now: time.Now}
}

// ContactResponse is the reply to a public submission.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit handles the public contact form.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub domain.ContactSubmission
	if !decodeJSON(w, r, &sub) {
		return
	}

	if _, err := h.contacts.Submit(r.Context(), &sub, middleware.ClientIP(r)); err != nil {
		respondError(w, r, err, "Failed to submit contact form")
		return
	}

	writeJSON(w, http.StatusCreated, ContactResponse{Success: true, Message: service.ContactSuccessMessage})
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	contact, err := h.contacts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, "Failed to retrieve contact")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	var contact domain.Contact
	if !decodeJSON(w, r, &contact) {
		return
	}
	contact.ID = chi.URLParam(r, "id")
	if err := h.contacts.Update(r.Context(), &contact); err != nil {
		respondError(w, r, err, "Failed to update contact")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, "Failed to delete contact")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export downloads every contact as an attachment.
func (h *ContactHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))

	var buf bytes.Buffer
	if err := h.contacts.Export(r.Context(), format, &buf); err != nil {
		respondError(w, r, err, "Failed to export contacts")
		return
	}

	filename := fmt.Sprintf("mita_contacts_%s.%s", h.now().UTC().Format("20060102_150405"), format)
	w.Header().Set("Content-Type", service.ExportContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
