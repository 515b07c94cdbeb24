package gemini

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Turn is one conversation message. Role is "user" or "assistant";
// assistant turns map to the Gemini "model" role on the wire.
type Turn struct {
	Role    string
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generator wraps the generation service for single-shot completions
// (query rewriting) and streamed chat answers.
type Generator struct {
	client       *genai.Client
	chatModel    string
	rewriteModel string
}

func NewGenerator(ctx context.Context, apiKey, chatModel, rewriteModel string, opts ...option.ClientOption) (*Generator, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{client: client, chatModel: chatModel, rewriteModel: rewriteModel}, nil
}

// GenerateText runs a non-streamed completion and returns the full text.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	slog.DebugContext(ctx, "generating text", "model", g.rewriteModel, "prompt_len", len(prompt))
	m := g.client.GenerativeModel(g.rewriteModel)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// StreamChat starts a streamed generation over the conversation and returns
// a handle to the in-flight stream. The stream is tied to ctx: cancelling
// the context releases the underlying connection.
func (g *Generator) StreamChat(ctx context.Context, system string, history []Turn, question string) (*TokenStream, error) {
	m := g.client.GenerativeModel(g.chatModel)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	cs := m.StartChat()
	cs.History = make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	iter := cs.SendMessageStream(ctx, genai.Text(question))
	return &TokenStream{iter: iter}, nil
}

// TokenStream yields answer fragments in generation order. Next returns
// io.EOF when the service signals completion; any other error means the
// stream failed mid-generation.
type TokenStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *TokenStream) Next() (string, error) {
	resp, err := s.iter.Next()
	if err == iterator.Done {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

func (g *Generator) Close() error {
	return g.client.Close()
}
