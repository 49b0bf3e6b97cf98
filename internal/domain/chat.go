package domain

import (
	"context"
	"time"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a chat-widget conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is a visitor conversation with the sales assistant, plus any
// lead details extracted from it.
type ChatSession struct {
	ID           string        `json:"id"`
	Messages     []ChatMessage `json:"messages"`
	LeadName     string        `json:"lead_name,omitempty"`
	LeadEmail    string        `json:"lead_email,omitempty"`
	LeadPhone    string        `json:"lead_phone,omitempty"`
	LeadCaptured bool          `json:"lead_captured"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (s ChatSession) EntityID() string { return s.ID }

func (s ChatSession) WithEntityID(id string) ChatSession {
	s.ID = id
	return s
}

// ChatRequest is the chat-widget request payload.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// ChatReply is the assistant's answer.
type ChatReply struct {
	SessionID    string `json:"session_id"`
	Message      string `json:"message"`
	LeadCaptured bool   `json:"lead_captured"`
}

// ChatSessionRepository defines the interface for chat session data access
type ChatSessionRepository interface {
	Get(ctx context.Context, id string) (*ChatSession, error)
	Save(ctx context.Context, session *ChatSession) error
	List(ctx context.Context) ([]*ChatSession, error)
	Delete(ctx context.Context, id string) error
}

// Meeting request statuses.
const (
	MeetingStatusPending  = "pending"
	MeetingStatusApproved = "approved"
	MeetingStatusRejected = "rejected"
)

// MeetingRequest is a consultation the assistant booked on a visitor's behalf.
type MeetingRequest struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PreferredDatetime string    `json:"preferred_datetime"`
	Topic             string    `json:"topic"`
	Status            string    `json:"status" validate:"required,oneof=pending approved rejected"`
	AdminNotes        string    `json:"admin_notes,omitempty" validate:"max=5000"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (m MeetingRequest) EntityID() string { return m.ID }

func (m MeetingRequest) WithEntityID(id string) MeetingRequest {
	m.ID = id
	return m
}

// MeetingRequestRepository defines the interface for meeting request data access
type MeetingRequestRepository interface {
	Create(ctx context.Context, req *MeetingRequest) error
	List(ctx context.Context) ([]*MeetingRequest, error)
	GetByID(ctx context.Context, id string) (*MeetingRequest, error)
	UpdateStatus(ctx context.Context, id, status, notes string) (*MeetingRequest, error)
	Delete(ctx context.Context, id string) error
}
