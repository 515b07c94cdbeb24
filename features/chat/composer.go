package chat

import (
	"context"
	"fmt"
	"strings"

	"docsmith/apps/backend/internal/retrieval"
)

// TokenStream yields answer fragments in generation order. Next returns
// io.EOF when generation completes.
type TokenStream interface {
	Next() (string, error)
}

type StreamGenerator interface {
	StreamChat(ctx context.Context, system string, history []Message, question string) (TokenStream, error)
}

const (
	systemPreamble = `You are the documentation assistant for this site.
Answer using only the context below. If the context does not contain the answer, say you do not know.
Cite the page URL of the context you used when it helps the reader.
Format answers as structured text with short paragraphs and lists where appropriate.`

	contextSeparator = "\n\n---\n\n"
)

// Composer assembles the grounded generation prompt and starts the stream.
type Composer struct {
	gen StreamGenerator
}

func NewComposer(gen StreamGenerator) *Composer {
	return &Composer{gen: gen}
}

// Compose starts a streamed generation over the conversation, grounded on
// the retrieved chunks. The returned stream is live: callers can forward
// output before generation completes. Chunks are interpolated verbatim in
// retrieval rank order, no re-ranking happens here.
func (c *Composer) Compose(ctx context.Context, history []Message, question string, retrieved []retrieval.Result) (TokenStream, error) {
	tokens, err := c.gen.StreamChat(ctx, systemPrompt(retrieved), history, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return tokens, nil
}

func systemPrompt(retrieved []retrieval.Result) string {
	var sb strings.Builder
	sb.WriteString(systemPreamble)
	sb.WriteString("\n\nContext:\n\n")
	if len(retrieved) == 0 {
		sb.WriteString("(no matching documentation found)")
		return sb.String()
	}
	for i, r := range retrieved {
		if i > 0 {
			sb.WriteString(contextSeparator)
		}
		sb.WriteString("Page URL: ")
		sb.WriteString(r.URL)
		sb.WriteString("\n\nPage content:\n")
		sb.WriteString(r.Content)
	}
	return sb.String()
}
