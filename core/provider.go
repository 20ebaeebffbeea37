package core

import "fmt"

// Provider identifies a chat-completion vendor.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Providers returns every supported provider in a stable order.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini}
}

// ParseProvider validates a raw provider name.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q", raw)
	}
	return p, nil
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	default:
		return false
	}
}

func (p Provider) String() string { return string(p) }

// ModelDescriptor names the model backing the host or target role.
// It is a value type; two descriptors are equal when all fields are equal.
type ModelDescriptor struct {
	Provider    Provider `json:"provider"`
	ModelName   string   `json:"model_name"`
	DisplayName string   `json:"display_name"`
}

// Validate checks the provider and model name.
func (d ModelDescriptor) Validate() error {
	if !d.Provider.Valid() {
		return fmt.Errorf("unknown provider %q", string(d.Provider))
	}
	if d.ModelName == "" {
		return fmt.Errorf("model name is required for provider %s", d.Provider)
	}
	return nil
}

// Label returns the display name, falling back to the model name.
func (d ModelDescriptor) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ModelName
}
