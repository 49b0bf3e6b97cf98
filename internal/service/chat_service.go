package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mitaict-site/internal/domain"
	"mitaict-site/internal/llm"
	"mitaict-site/internal/observability"
)

// DefaultChatTimeout bounds a single completion.
const DefaultChatTimeout = 30 * time.Second

const maxChatMessageLength = 2000

// ChatService runs the sales-assistant conversation: it keeps the
// transcript, asks the model for the next reply and turns what the visitor
// shares into leads and meeting requests.
type ChatService struct {
	chats     domain.ChatSessionRepository
	meetings  domain.MeetingRequestRepository
	content   *ContentService
	model     llm.Client
	publisher domain.EventPublisher
	timeout   time.Duration
	now       func() time.Time
}

func NewChatService(
	chats domain.ChatSessionRepository,
	meetings domain.MeetingRequestRepository,
	content *ContentService,
	model llm.Client,
	publisher domain.EventPublisher,
	timeout time.Duration,
) *ChatService {
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &ChatService{
		chats:     chats,
		meetings:  meetings,
		content:   content,
		model:     model,
		publisher: publisher,
		timeout:   timeout,
		now:       time.Now,
	}
}

// HandleMessage appends the visitor message to its session, asks the model
// for a reply and stores both turns. Unknown or empty session ids start a
// new conversation.
func (s *ChatService) HandleMessage(ctx context.Context, req *domain.ChatRequest) (*domain.ChatReply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" || len(text) > maxChatMessageLength {
		observability.ChatMessagesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: message must be 1 to %d characters", domain.ErrInvalidInput, maxChatMessageLength)
	}

	session, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	ctx = observability.WithChatSessionID(ctx, session.ID)
	logger := observability.FromContext(ctx)

	reply, err := s.complete(ctx, session, text)
	if err != nil {
		observability.ChatMessagesTotal.WithLabelValues("llm_error").Inc()
		logger.Error("chat completion failed", slog.String("error", err.Error()))
		return nil, domain.ErrAssistantUnavailable
	}

	wasCaptured := session.LeadCaptured
	applyLead(session, ExtractLead(text))

	marker, cleaned, hasMeeting := ParseMeetingMarker(reply)
	if hasMeeting {
		reply = cleaned
		session.LeadName = marker.Name
		session.LeadEmail = marker.Email
		session.LeadCaptured = true
	}

	now := s.now().UTC()
	session.Messages = append(session.Messages,
		domain.ChatMessage{Role: domain.RoleUser, Content: text, Timestamp: now},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: reply, Timestamp: now},
	)

	if err := s.chats.Save(ctx, session); err != nil {
		return nil, err
	}
	observability.ChatMessagesTotal.WithLabelValues("ok").Inc()

	if hasMeeting {
		s.recordMeeting(ctx, session, marker)
	}
	if session.LeadCaptured && !wasCaptured {
		observability.LeadsCaptured.Inc()
		logger.Info("chat lead captured")
		publish(ctx, s.publisher, domain.EventLeadCaptured, domain.LeadCaptured{
			SessionID: session.ID,
			Name:      session.LeadName,
			Email:     session.LeadEmail,
			Phone:     session.LeadPhone,
		})
	}

	return &domain.ChatReply{
		SessionID:    session.ID,
		Message:      reply,
		LeadCaptured: session.LeadCaptured,
	}, nil
}

func (s *ChatService) loadSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	if id != "" {
		session, err := s.chats.Get(ctx, id)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return &domain.ChatSession{
		ID:       uuid.New().String(),
		Messages: []domain.ChatMessage{},
	}, nil
}

func (s *ChatService) complete(ctx context.Context, session *domain.ChatSession, text string) (string, error) {
	system, err := s.systemPrompt(ctx)
	if err != nil {
		return "", err
	}

	history := make([]llm.Message, 0, len(session.Messages))
	for _, m := range session.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.model.Complete(ctx, llm.Request{System: system, History: history, Prompt: text})
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.LLMRequestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", llm.ErrEmptyReply
	}
	return reply, nil
}

func (s *ChatService) systemPrompt(ctx context.Context) (string, error) {
	services, err := s.content.ListServices(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load services: %w", err)
	}
	products, err := s.content.ListProducts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load saas products: %w", err)
	}
	about, err := s.content.About(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load about content: %w", err)
	}
	return BuildSystemPrompt(services, products, about), nil
}

func applyLead(session *domain.ChatSession, lead Lead) {
	if lead.Email != "" {
		session.LeadEmail = lead.Email
		session.LeadCaptured = true
	}
	if lead.Phone != "" {
		session.LeadPhone = lead.Phone
		session.LeadCaptured = true
	}
	if lead.Name != "" {
		session.LeadName = lead.Name
	}
}

// recordMeeting stores the booking. The visitor already got a confirmation,
// so failures are logged and not returned.
func (s *ChatService) recordMeeting(ctx context.Context, session *domain.ChatSession, marker MeetingMarker) {
	meeting := &domain.MeetingRequest{
		SessionID:         session.ID,
		Name:              marker.Name,
		Email:             marker.Email,
		PreferredDatetime: marker.PreferredDatetime,
		Topic:             marker.Topic,
		Status:            domain.MeetingStatusPending,
	}
	if err := s.meetings.Create(ctx, meeting); err != nil {
		observability.FromContext(ctx).Error("failed to store meeting request", slog.String("error", err.Error()))
		return
	}
	observability.MeetingRequestsTotal.Inc()
	publish(ctx, s.publisher, domain.EventMeetingRequested, meeting)
}

func (s *ChatService) ListSessions(ctx context.Context) ([]*domain.ChatSession, error) {
	return s.chats.List(ctx)
}

func (s *ChatService) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	return s.chats.Get(ctx, id)
}

func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	return s.chats.Delete(ctx, id)
}

func (s *ChatService) ListMeetings(ctx context.Context) ([]*domain.MeetingRequest, error) {
	return s.meetings.List(ctx)
}

// UpdateMeetingStatus moves a meeting request to pending, approved or
// rejected and records the admin's notes.
func (s *ChatService) UpdateMeetingStatus(ctx context.Context, id, status, notes string) (*domain.MeetingRequest, error) {
	update := domain.MeetingRequest{Status: status, AdminNotes: notes}
	if err := validate.StructPartial(update, "Status", "AdminNotes"); err != nil {
		return nil, fmt.Errorf("%w: status must be one of pending, approved, rejected", domain.ErrInvalidInput)
	}
	return s.meetings.UpdateStatus(ctx, id, status, notes)
}

func (s *ChatService) DeleteMeeting(ctx context.Context, id string) error {
	return s.meetings.Delete(ctx, id)
}
