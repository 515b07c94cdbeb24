package chat

import (
	"errors"
	"fmt"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrBadRequest marks request-shape failures that never reach the pipeline.
	ErrBadRequest = errors.New("invalid chat request")
	// ErrRewrite marks a query-rewrite failure. The service degrades to the
	// raw question but the degradation is always surfaced in logs.
	ErrRewrite    = errors.New("query rewrite failed")
	ErrRetrieval  = errors.New("context retrieval failed")
	ErrGeneration = errors.New("answer generation failed")
)

// Message is one conversation turn as sent by the chat widget.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the ordered transcript of a chat session. The last message
// is the pending user question; everything before it is history. The server
// holds no conversation state between requests, the transcript travels with
// each request.
type Conversation []Message

func (c Conversation) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrBadRequest)
	}
	for i, m := range c {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return fmt.Errorf("%w: message %d has unknown role %q", ErrBadRequest, i, m.Role)
		}
	}
	last := c[len(c)-1]
	if last.Role != RoleUser {
		return fmt.Errorf("%w: last message must be a user question", ErrBadRequest)
	}
	if strings.TrimSpace(last.Content) == "" {
		return fmt.Errorf("%w: question must not be empty", ErrBadRequest)
	}
	return nil
}

// History returns every turn before the pending question.
func (c Conversation) History() []Message {
	return c[:len(c)-1]
}

// Question returns the pending user question.
func (c Conversation) Question() string {
	return c[len(c)-1].Content
}
