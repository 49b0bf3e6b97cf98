// Package chatwidget is the visitor-side conversation with the sales
// assistant.
package chatwidget

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mitaict-site/internal/domain"
)

const (
	Greeting = "Hi there! 👋 Welcome to MITA ICT. I'm here to help you learn about our IT and telecommunications consulting services. What can I help you with today?"
	Fallback = "I apologize, but I'm having trouble connecting right now. Please try again in a moment or use our contact form to reach us directly."

	DefaultReplyTimeout = 10 * time.Second
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a message is already being sent")
)

// Sender delivers a visitor message to the assistant. api.Client satisfies it.
type Sender interface {
	SendChatMessage(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error)
}

// Widget holds one visitor conversation. The transcript only grows.
type Widget struct {
	mu        sync.RWMutex
	sessionID string
	messages  []domain.ChatMessage

	sendMu  sync.Mutex
	sender  Sender
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Widget.
type Option func(*Widget)

func WithReplyTimeout(d time.Duration) Option {
	return func(w *Widget) {
		w.timeout = d
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Widget) {
		w.logger = l
	}
}

func New(sender Sender, opts ...Option) *Widget {
	w := &Widget{
		sender:  sender,
		timeout: DefaultReplyTimeout,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open shows the greeting the first time the widget is opened.
func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.messages) == 0 {
		w.messages = append(w.messages, domain.ChatMessage{
			Role:      domain.RoleAssistant,
			Content:   Greeting,
			Timestamp: w.now(),
		})
	}
}

// Send posts text and returns the assistant's reply. Transport or server
// failures become the fallback reply rather than an error, so the visitor
// always sees an answer.
func (w *Widget) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}
	if !w.sendMu.TryLock() {
		return domain.ChatMessage{}, ErrBusy
	}
	defer w.sendMu.Unlock()

	w.Open()
	w.appendMessage(domain.RoleUser, text)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	reply, err := w.sender.SendChatMessage(ctx, domain.ChatRequest{
		SessionID: w.SessionID(),
		Message:   text,
	})
	if err != nil || reply == nil || reply.Message == "" {
		if err != nil {
			w.logger.Warn("chat reply failed", slog.String("error", err.Error()))
		}
		return w.appendMessage(domain.RoleAssistant, Fallback), nil
	}

	if reply.SessionID != "" {
		w.mu.Lock()
		w.sessionID = reply.SessionID
		w.mu.Unlock()
	}
	return w.appendMessage(domain.RoleAssistant, reply.Message), nil
}

func (w *Widget) appendMessage(role, content string) domain.ChatMessage {
	msg := domain.ChatMessage{Role: role, Content: content, Timestamp: w.now()}
	w.mu.Lock()
	w.messages = append(w.messages, msg)
	w.mu.Unlock()
	return msg
}

// SessionID is empty until the server assigns one.
func (w *Widget) SessionID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sessionID
}

// Messages returns a copy of the transcript.
func (w *Widget) Messages() []domain.ChatMessage {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.ChatMessage(nil), w.messages...)
}
