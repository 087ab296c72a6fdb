package ai

import (
	"context"
	"strings"
	"unicode/utf8"
)

// NotAvailableSentinel is the phrase the model is instructed to emit when
// the retrieved context does not contain the answer. The instruction lives
// in the prompt, so adherence is probabilistic, not enforced in code.
const NotAvailableSentinel = "answer is not available in the context"

const systemPrompt = "Answer the question as detailed as possible from the provided context, " +
	"make sure to provide all the details. If the answer is not in the provided context just say, " +
	"\"" + NotAvailableSentinel + "\", don't provide the wrong answer."

const defaultMaxContextChars = 30000

// Answerer synthesizes an answer to a question from retrieved chunks using
// a fixed prompt.
type Answerer struct {
	client          *Client
	maxContextChars int
}

func NewAnswerer(client *Client, maxContextChars int) *Answerer {
	if maxContextChars <= 0 {
		maxContextChars = defaultMaxContextChars
	}
	return &Answerer{client: client, maxContextChars: maxContextChars}
}

// Answer builds the QA prompt from the context chunks and invokes the
// model. Returns ErrMissingAPIKey without a credential and ErrUpstream on
// any provider failure.
func (a *Answerer) Answer(ctx context.Context, question string, contextChunks []string) (string, error) {
	if !a.client.HasAPIKey() {
		return "", ErrMissingAPIKey
	}

	contextBlock := a.buildContext(contextChunks)
	userContent := "Context:\n" + contextBlock + "\n\nQuestion:\n" + question + "\n\nAnswer:"

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	}
	answer, err := a.client.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// buildContext joins chunks nearest-first and truncates to the configured
// rune budget so large corpora cannot blow past model context limits.
func (a *Answerer) buildContext(chunks []string) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(chunk)
	}
	joined := b.String()
	if utf8.RuneCountInString(joined) <= a.maxContextChars {
		return joined
	}
	runes := []rune(joined)
	return string(runes[:a.maxContextChars])
}
