package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedClient answers without a model. It backs local development and
// tests: ReplyFunc wins when set, otherwise Replies are returned in turn and
// the last one repeats.
type ScriptedClient struct {
	Replies   []string
	ReplyFunc func(req Request) (string, error)

	mu       sync.Mutex
	calls    int
	requests []Request
}

func NewScriptedClient(replies ...string) *ScriptedClient {
	return &ScriptedClient{Replies: replies}
}

func (s *ScriptedClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	if s.ReplyFunc != nil {
		return s.ReplyFunc(req)
	}
	if len(s.Replies) > 0 {
		i := s.calls
		if i >= len(s.Replies) {
			i = len(s.Replies) - 1
		}
		s.calls++
		return s.Replies[i], nil
	}
	return defaultScriptedReply(req.Prompt), nil
}

// Requests returns every request seen so far.
func (s *ScriptedClient) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func defaultScriptedReply(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "meeting"), strings.Contains(lower, "consultation"):
		return "I'd be happy to help you schedule a consultation! Could I get your name and email address?"
	case strings.Contains(lower, "price"), strings.Contains(lower, "cost"):
		return "Pricing depends on your needs. Shall we set up a free consultation call to discuss it?"
	default:
		return fmt.Sprintf("Thanks for your message! You asked about %q. Would you like to hear more about our services?", strings.TrimSpace(prompt))
	}
}
