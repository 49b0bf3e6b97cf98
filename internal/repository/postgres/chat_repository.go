package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"mitaict-site/internal/domain"
)

const (
	chatSessionColumns = `id, messages, lead_name, lead_email, lead_phone, lead_captured, created_at, updated_at`
	getChatQuery       = `SELECT ` + chatSessionColumns + ` FROM chat_sessions WHERE id = $1`
	listChatsQuery     = `SELECT ` + chatSessionColumns + ` FROM chat_sessions ORDER BY updated_at DESC, id`
	saveChatQuery      = `
		INSERT INTO chat_sessions (id, messages, lead_name, lead_email, lead_phone, lead_captured)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			messages = EXCLUDED.messages,
			lead_name = EXCLUDED.lead_name,
			lead_email = EXCLUDED.lead_email,
			lead_phone = EXCLUDED.lead_phone,
			lead_captured = EXCLUDED.lead_captured,
			updated_at = NOW()
		RETURNING created_at, updated_at`
	deleteChatQuery = `DELETE FROM chat_sessions WHERE id = $1`

	meetingColumns     = `id, session_id, name, email, preferred_datetime, topic, status, admin_notes, created_at, updated_at`
	createMeetingQuery = `
		INSERT INTO meeting_requests (id, session_id, name, email, preferred_datetime, topic, status, admin_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	listMeetingsQuery        = `SELECT ` + meetingColumns + ` FROM meeting_requests ORDER BY created_at DESC, id`
	getMeetingQuery          = `SELECT ` + meetingColumns + ` FROM meeting_requests WHERE id = $1`
	updateMeetingStatusQuery = `
		UPDATE meeting_requests SET status = $1, admin_notes = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + meetingColumns
	deleteMeetingQuery = `DELETE FROM meeting_requests WHERE id = $1`
)

// ChatSessionRepository stores chat transcripts as a JSONB message array.
type ChatSessionRepository struct {
	db *sql.DB
}

func NewChatSessionRepository(db *sql.DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: db}
}

func scanChatSession(row rowScanner) (*domain.ChatSession, error) {
	s := &domain.ChatSession{}
	var messages []byte
	if err := row.Scan(&s.ID, &messages, &s.LeadName, &s.LeadEmail, &s.LeadPhone, &s.LeadCaptured, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Messages = []domain.ChatMessage{}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &s.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode messages: %w", err)
		}
	}
	return s, nil
}

func (r *ChatSessionRepository) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	s, err := scanChatSession(r.db.QueryRowContext(ctx, getChatQuery, id))
	if notFound(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	return s, nil
}

// Save inserts or replaces the session.
func (r *ChatSessionRepository) Save(ctx context.Context, s *domain.ChatSession) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Messages == nil {
		s.Messages = []domain.ChatMessage{}
	}
	messages, err := json.Marshal(s.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	err = r.db.QueryRowContext(ctx, saveChatQuery,
		s.ID, messages, s.LeadName, s.LeadEmail, s.LeadPhone, s.LeadCaptured,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}

// List returns the most recently active sessions first.
func (r *ChatSessionRepository) List(ctx context.Context) ([]*domain.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx, listChatsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*domain.ChatSession{}
	for rows.Next() {
		s, err := scanChatSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat sessions: %w", err)
	}
	return sessions, nil
}

func (r *ChatSessionRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.db, "chat session", deleteChatQuery, id)
}

// MeetingRequestRepository implements domain.MeetingRequestRepository for PostgreSQL
type MeetingRequestRepository struct {
	db *sql.DB
}

func NewMeetingRequestRepository(db *sql.DB) *MeetingRequestRepository {
	return &MeetingRequestRepository{db: db}
}

func scanMeeting(row rowScanner) (*domain.MeetingRequest, error) {
	m := &domain.MeetingRequest{}
	err := row.Scan(&m.ID, &m.SessionID, &m.Name, &m.Email, &m.PreferredDatetime, &m.Topic,
		&m.Status, &m.AdminNotes, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *MeetingRequestRepository) Create(ctx context.Context, m *domain.MeetingRequest) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = domain.MeetingStatusPending
	}
	err := r.db.QueryRowContext(ctx, createMeetingQuery,
		m.ID, m.SessionID, m.Name, m.Email, m.PreferredDatetime, m.Topic, m.Status, m.AdminNotes,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meeting request: %w", err)
	}
	return nil
}

func (r *MeetingRequestRepository) List(ctx context.Context) ([]*domain.MeetingRequest, error) {
	rows, err := r.db.QueryContext(ctx, listMeetingsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list meeting requests: %w", err)
	}
	defer rows.Close()

	meetings := []*domain.MeetingRequest{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting request: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meeting requests: %w", err)
	}
	return meetings, nil
}

func (r *MeetingRequestRepository) GetByID(ctx context.Context, id string) (*domain.MeetingRequest, error) {
	m, err := scanMeeting(r.db.QueryRowContext(ctx, getMeetingQuery, id))
	if notFound(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting request: %w", err)
	}
	return m, nil
}

func (r *MeetingRequestRepository) UpdateStatus(ctx context.Context, id, status, notes string) (*domain.MeetingRequest, error) {
	m, err := scanMeeting(r.db.QueryRowContext(ctx, updateMeetingStatusQuery, status, notes, id))
	if notFound(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting request: %w", err)
	}
	return m, nil
}

func (r *MeetingRequestRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.db, "meeting request", deleteMeetingQuery, id)
}
