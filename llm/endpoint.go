package llm

import "fmt"

// EndpointConfig identifies the model that answers every request of a run.
type EndpointConfig struct {
	// Provider is the registered provider name ("openai", "ollama", "anthropic", "gemini").
	Provider string `yaml:"provider" json:"provider"`

	// URL is the API base URL. Empty uses the provider default.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// Model is the provider model name.
	Model string `yaml:"model" json:"model"`

	// MaxTokens caps the response length. 0 uses the provider default.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// Temperature is nil to use the provider default.
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
}

// Validate checks the endpoint names a registered provider and a model.
func (e EndpointConfig) Validate() error {
	if e.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if GetProvider(e.Provider) == nil {
		return fmt.Errorf("unknown provider %q (registered: %v)", e.Provider, ListProviders())
	}
	if e.Model == "" {
		return fmt.Errorf("model is required")
	}
	if e.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	return nil
}
