package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/llm"
	"mitaict-site/internal/testutil"
)

func TestSendChatMessage(t *testing.T) {
	env := newTestEnv(t)
	env.model.Replies = []string{"Hello! How can MITA ICT help?", "Thanks Ada, we will be in touch."}

	rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/message", domain.ChatRequest{Message: "Hi there"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := testutil.DecodeJSON[domain.ChatReply](t, rec)
	assert.NotEmpty(t, first.SessionID)
	assert.Equal(t, "Hello! How can MITA ICT help?", first.Message)
	assert.False(t, first.LeadCaptured)

	rec = env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/message",
		domain.ChatRequest{SessionID: first.SessionID, Message: "My name is Ada, ada@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := testutil.DecodeJSON[domain.ChatReply](t, rec)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.True(t, second.LeadCaptured)
	assert.Contains(t, env.publisher.Types(), domain.EventLeadCaptured)
}

func TestSendChatMessage_Errors(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		env := newTestEnv(t)
		rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/message", domain.ChatRequest{Message: "   "}))
		testutil.AssertJSONError(t, rec, http.StatusBadRequest, "message must be 1 to 2000 characters")
	})

	t.Run("assistant down", func(t *testing.T) {
		env := newTestEnv(t)
		env.model.ReplyFunc = func(llm.Request) (string, error) { return "", errors.New("quota exceeded") }

		rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/message", domain.ChatRequest{Message: "Hello"}))
		testutil.AssertJSONError(t, rec, http.StatusServiceUnavailable, "assistant is unavailable")
		assert.NotContains(t, rec.Body.String(), "quota")
	})
}

func TestAdminChatSessions(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/message", domain.ChatRequest{Message: "What do you offer?"}))
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := testutil.DecodeJSON[domain.ChatReply](t, rec).SessionID

	rec = env.serve(testutil.NewJSONRequest(t, http.MethodGet, "/api/admin/chat-sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/chat-sessions", token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	summaries := testutil.DecodeJSON[[]ChatSessionSummary](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, sessionID, summaries[0].ID)
	assert.Equal(t, 2, summaries[0].MessageCount)
	assert.NotContains(t, rec.Body.String(), `"messages"`)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/chat-sessions/"+sessionID, token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	transcript := testutil.DecodeJSON[domain.ChatSession](t, rec)
	require.Len(t, transcript.Messages, 2)
	assert.Equal(t, domain.RoleUser, transcript.Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, transcript.Messages[1].Role)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodDelete, "/api/admin/chat-sessions/"+sessionID, token, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/chat-sessions/"+sessionID, token, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminMeetingRequests(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.model.Replies = []string{"Booked! MEETING_REQUEST: Ada Lovelace | ada@example.com | Tuesday 10am | ERP rollout"}

	rec := env.serve(testutil.NewJSONRequest(t, http.MethodPost, "/api/chat/message",
		domain.ChatRequest{Message: "Please book a meeting for Tuesday 10am"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reply := testutil.DecodeJSON[domain.ChatReply](t, rec)
	assert.NotContains(t, reply.Message, "MEETING_REQUEST")
	assert.Contains(t, env.publisher.Types(), domain.EventMeetingRequested)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodGet, "/api/admin/meeting-requests", token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	meetings := testutil.DecodeJSON[[]domain.MeetingRequest](t, rec)
	require.Len(t, meetings, 1)
	meeting := meetings[0]
	assert.Equal(t, domain.MeetingStatusPending, meeting.Status)
	assert.Equal(t, "ERP rollout", meeting.Topic)
	assert.Equal(t, reply.SessionID, meeting.SessionID)

	path := "/api/admin/meeting-requests/" + meeting.ID
	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodPut, path+"/status", token,
		MeetingStatusRequest{Status: domain.MeetingStatusApproved, AdminNotes: "Zoom link sent"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := testutil.DecodeJSON[domain.MeetingRequest](t, rec)
	assert.Equal(t, domain.MeetingStatusApproved, updated.Status)
	assert.Equal(t, "Zoom link sent", updated.AdminNotes)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodPut, path+"/status", token, MeetingStatusRequest{Status: "maybe"}))
	testutil.AssertJSONError(t, rec, http.StatusBadRequest, "status must be one of pending, approved, rejected")

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodPut, "/api/admin/meeting-requests/missing/status", token,
		MeetingStatusRequest{Status: domain.MeetingStatusRejected}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodDelete, path, token, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.serve(testutil.NewAuthorizedRequest(t, http.MethodDelete, path, token, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
