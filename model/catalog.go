package model

import "github.com/hupe1980/llmbridge/core"

var catalog = map[core.Provider][]core.ModelDescriptor{
	core.ProviderOpenAI: {
		{Provider: core.ProviderOpenAI, ModelName: "gpt-4o", DisplayName: "GPT-4o"},
		{Provider: core.ProviderOpenAI, ModelName: "gpt-4.1", DisplayName: "GPT-4.1"},
		{Provider: core.ProviderOpenAI, ModelName: "gpt-4o-mini", DisplayName: "GPT-4o Mini"},
		{Provider: core.ProviderOpenAI, ModelName: "o1", DisplayName: "o1"},
		{Provider: core.ProviderOpenAI, ModelName: "o1-mini", DisplayName: "o1 Mini"},
	},
	core.ProviderAnthropic: {
		{Provider: core.ProviderAnthropic, ModelName: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4"},
		{Provider: core.ProviderAnthropic, ModelName: "claude-opus-4-20250514", DisplayName: "Claude Opus 4"},
		{Provider: core.ProviderAnthropic, ModelName: "claude-3-5-sonnet-20241022", DisplayName: "Claude 3.5 Sonnet"},
	},
	core.ProviderGemini: {
		{Provider: core.ProviderGemini, ModelName: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash"},
		{Provider: core.ProviderGemini, ModelName: "gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro"},
	},
}

// Catalog returns the selectable models grouped by provider.
func Catalog() map[core.Provider][]core.ModelDescriptor {
	out := make(map[core.Provider][]core.ModelDescriptor, len(catalog))
	for p, models := range catalog {
		out[p] = append([]core.ModelDescriptor(nil), models...)
	}
	return out
}

// Lookup finds a catalog entry by provider and model name.
func Lookup(provider core.Provider, modelName string) (core.ModelDescriptor, bool) {
	for _, d := range catalog[provider] {
		if d.ModelName == modelName {
			return d, true
		}
	}
	return core.ModelDescriptor{}, false
}
