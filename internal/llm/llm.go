// Package llm adapts chat-completion backends to the sales assistant.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Backends selectable through configuration.
const (
	BackendGemini   = "gemini"
	BackendVertex   = "vertex"
	BackendScripted = "scripted"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrEmptyReply = errors.New("llm returned empty text")

// Message is one prior turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion: system instructions, the prior turns and
// the new user prompt.
type Request struct {
	System  string
	History []Message
	Prompt  string
}

// Client produces the assistant's next reply.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend  string
	APIKey   string
	Project  string
	Location string
	Model    string
}

// New builds the client for cfg.Backend.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Backend {
	case BackendGemini, BackendVertex:
		return NewGeminiClient(ctx, cfg)
	case BackendScripted:
		return NewScriptedClient(), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}
