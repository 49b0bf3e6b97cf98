package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/service"
)

// ChatHandler serves the chat widget and the admin views of its
// transcripts and meeting requests.
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ChatSessionSummary is a transcript listing entry without the messages.
type ChatSessionSummary struct {
	ID           string    `json:"id"`
	LeadCaptured bool      `json:"lead_captured"`
	LeadName     string    `json:"lead_name,omitempty"`
	LeadEmail    string    `json:"lead_email,omitempty"`
	LeadPhone    string    `json:"lead_phone,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type MeetingStatusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

// SendMessage handles one visitor turn of the chat widget.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.chat.HandleMessage(r.Context(), &req)
	if err != nil {
		respondError(w, r, err, "Failed to process chat message")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chat.ListSessions(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve chat sessions")
		return
	}

	summaries := make([]ChatSessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, ChatSessionSummary{
			ID:           s.ID,
			LeadCaptured: s.LeadCaptured,
			LeadName:     s.LeadName,
			LeadEmail:    s.LeadEmail,
			LeadPhone:    s.LeadPhone,
			MessageCount: len(s.Messages),
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, "Failed to retrieve chat session")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, "Failed to delete chat session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.chat.ListMeetings(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to retrieve meeting requests")
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}

func (h *ChatHandler) UpdateMeetingStatus(w http.ResponseWriter, r *http.Request) {
	var req MeetingStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	meeting, err := h.chat.UpdateMeetingStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.AdminNotes)
	if err != nil {
		respondError(w, r, err, "Failed to update meeting request")
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

func (h *ChatHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.DeleteMeeting(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, "Failed to delete meeting request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
