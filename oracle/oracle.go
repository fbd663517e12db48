// Package oracle is the memoized boundary between a crawl and the LLM that
// answers its questions.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/c360studio/ontocrawl/llm"
)

// ErrOffline is returned by OfflineOracle for every question.
var ErrOffline = errors.New("oracle offline: answer not cached")

// Question is one structured request to the oracle.
type Question struct {
	Category     string
	Concept      string
	SystemPrompt string
	UserPrompt   string
	// Format constrains the reply; its Name is the category.
	Format *llm.ResponseFormat
}

// Oracle answers questions with raw JSON text.
type Oracle interface {
	Ask(ctx context.Context, q Question) (string, error)
}

// Completer is the subset of *llm.Client an LLMOracle needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// LLMOracle asks an LLM endpoint.
type LLMOracle struct {
	client Completer
}

// NewLLMOracle wraps client.
func NewLLMOracle(client Completer) *LLMOracle {
	return &LLMOracle{client: client}
}

// Ask sends the system and user prompts with the response format.
func (o *LLMOracle) Ask(ctx context.Context, q Question) (string, error) {
	var messages []llm.Message
	if q.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: q.SystemPrompt})
	}
	messages = append(messages, llm.Message{Role: "user", Content: q.UserPrompt})

	resp, err := o.client.Complete(ctx, llm.Request{
		Messages:       messages,
		ResponseFormat: q.Format,
	})
	if err != nil {
		return "", fmt.Errorf("ask %s/%s: %w", q.Category, q.Concept, err)
	}
	return resp.Content, nil
}

// OfflineOracle never answers. Pair it with a Gateway to rebuild a graph
// strictly from cached answers.
type OfflineOracle struct{}

// Ask always fails with ErrOffline.
func (OfflineOracle) Ask(_ context.Context, q Question) (string, error) {
	return "", fmt.Errorf("%s/%s: %w", q.Category, q.Concept, ErrOffline)
}
