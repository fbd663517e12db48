package llm

import (
	"context"
	"net/http"
	"sort"
	"sync"
)

// Provider is a registered LLM backend. A provider implements either
// HTTPProvider, where the Client owns transport and retries, or
// DirectProvider, where an SDK owns transport.
type Provider interface {
	// Name returns the provider identifier (e.g., "anthropic", "ollama").
	Name() string
}

// HTTPProvider speaks a JSON-over-HTTP chat API.
type HTTPProvider interface {
	Provider

	// BuildURL constructs the full API endpoint URL.
	BuildURL(baseURL string) string

	// SetHeaders adds provider-specific headers to the request.
	SetHeaders(req *http.Request)

	// BuildRequestBody creates the JSON request body for the provider.
	// temperature is nil to use provider default. format is nil for free text.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int,
		format *ResponseFormat) ([]byte, error)

	// ParseResponse extracts the response from provider-specific JSON.
	ParseResponse(body []byte, model string) (*Response, error)
}

// DirectProvider completes requests through a vendor SDK.
type DirectProvider interface {
	Provider

	// Complete sends one request. Errors must be classified with
	// NewTransientError or NewFatalError.
	Complete(ctx context.Context, ep EndpointConfig, req Request) (*Response, error)
}

// providerRegistry holds registered providers.
var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider adds a provider to the registry.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider retrieves a provider by name.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns all registered provider names, sorted.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
