package chat

import (
	"context"
	"fmt"
	"strings"
)

type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

const rewriteInstruction = `Rewrite the latest user question as a single standalone search query for a documentation search engine.
Use the conversation so far to resolve pronouns and implicit references.
Keep every salient keyword from the question.
Return only the query text, with no explanation and no surrounding prose.`

// Rewriter turns the pending question plus its history into a
// self-contained search query.
type Rewriter struct {
	gen TextGenerator
}

func NewRewriter(gen TextGenerator) *Rewriter {
	return &Rewriter{gen: gen}
}

// Rewrite produces the standalone query. With empty history the model
// typically echoes the question back, which is the intended degenerate case
// and not special-cased here.
func (r *Rewriter) Rewrite(ctx context.Context, history []Message, question string) (string, error) {
	out, err := r.gen.GenerateText(ctx, buildRewritePrompt(history, question))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRewrite, err)
	}
	query := strings.TrimSpace(out)
	if query == "" {
		return "", fmt.Errorf("%w: model returned an empty query", ErrRewrite)
	}
	return query, nil
}

func buildRewritePrompt(history []Message, question string) string {
	var sb strings.Builder
	sb.WriteString(rewriteInstruction)
	sb.WriteString("\n\nConversation so far:\n")
	if len(history) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, m := range history {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nLatest user question: ")
	sb.WriteString(question)
	return sb.String()
}
