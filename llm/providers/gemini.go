package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/c360studio/ontocrawl/llm"
)

// GeminiProvider talks to Google Gemini through the generative-ai-go SDK.
type GeminiProvider struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
}

func init() {
	llm.RegisterProvider(&GeminiProvider{})
}

// Name returns the provider identifier.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// client returns a cached SDK client for the endpoint URL.
func (g *GeminiProvider) client(ctx context.Context, baseURL string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[baseURL]; ok {
		return c, nil
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, llm.NewFatalError(fmt.Errorf("GEMINI_API_KEY not set"))
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(baseURL))
	}

	c, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, llm.NewFatalError(fmt.Errorf("create gemini client: %w", err))
	}
	if g.clients == nil {
		g.clients = make(map[string]*genai.Client)
	}
	g.clients[baseURL] = c
	return c, nil
}

// Close releases every cached SDK client.
func (g *GeminiProvider) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	for url, c := range g.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(g.clients, url)
	}
	return errors.Join(errs...)
}

// Complete sends the conversation as a chat session.
func (g *GeminiProvider) Complete(ctx context.Context, ep llm.EndpointConfig, req llm.Request) (*llm.Response, error) {
	c, err := g.client(ctx, ep.URL)
	if err != nil {
		return nil, err
	}

	model := c.GenerativeModel(ep.Model)
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = toGeminiSchema(req.ResponseFormat.Schema)
	}

	system, history, last, err := splitGeminiMessages(req.Messages)
	if err != nil {
		return nil, llm.NewFatalError(err)
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	session.History = history
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	return geminiResponse(resp, ep.Model)
}

// splitGeminiMessages joins system messages and turns the rest into chat
// history plus the final user turn.
func splitGeminiMessages(messages []llm.Message) (string, []*genai.Content, string, error) {
	var system []string
	var turns []llm.Message
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return "", nil, "", fmt.Errorf("gemini request must end with a user message")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Content, nil
}

// toGeminiSchema converts a JSON schema to the SDK's OpenAPI subset.
// additionalProperties has no equivalent and is dropped.
func toGeminiSchema(s *llm.JSONSchema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
	}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if s.Items != nil {
		out.Items = toGeminiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	return out
}

func geminiResponse(resp *genai.GenerateContentResponse, model string) (*llm.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in gemini response")
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	out := &llm.Response{
		Content:      sb.String(),
		Model:        model,
		FinishReason: cand.FinishReason.String(),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// classifyGeminiError maps REST and gRPC failures onto transient or fatal.
func classifyGeminiError(err error) error {
	wrapped := fmt.Errorf("gemini request failed: %w", err)

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if llm.RetryableStatus(apiErr.Code) {
			return llm.NewTransientError(wrapped)
		}
		return llm.NewFatalError(wrapped)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
			return llm.NewTransientError(wrapped)
		default:
			return llm.NewFatalError(wrapped)
		}
	}

	return llm.NewTransientError(wrapped)
}
