package main

import (
	"fmt"

	"github.com/sunggeunkim/haya/internal/agent"
	"github.com/sunggeunkim/haya/internal/agent/providers"
	"github.com/sunggeunkim/haya/internal/config"
)

// buildProvider constructs the configured default LLM provider from cfg. This
// is the dynamic provider-import registry: the provider name selects which
// constructor runs, but every caller sees the same agent.LLMProvider
// interface (§9 "Dynamic provider imports").
func buildProvider(cfg config.LLMConfig) (agent.LLMProvider, error) {
	name := cfg.DefaultProvider
	if name == "" {
		return nil, fmt.Errorf("llm.default_provider is required")
	}
	provCfg := cfg.Providers[name]

	switch name {
	case "anthropic":
		return providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:  provCfg.APIKey,
			BaseURL: provCfg.BaseURL,
		})
	case "openai":
		return providers.NewOpenAIProvider(provCfg.APIKey), nil
	case "google":
		return providers.NewGoogleProvider(providers.GoogleConfig{APIKey: provCfg.APIKey})
	case "openrouter":
		return providers.NewOpenRouterProvider(providers.OpenRouterConfig{
			APIKey:       provCfg.APIKey,
			DefaultModel: provCfg.DefaultModel,
		})
	case "ollama":
		return providers.NewOllamaProvider(providers.OllamaConfig{
			BaseURL:      provCfg.BaseURL,
			DefaultModel: provCfg.DefaultModel,
		}), nil
	case "azure":
		return providers.NewAzureOpenAIProvider(providers.AzureOpenAIConfig{
			APIKey:     provCfg.APIKey,
			Endpoint:   provCfg.BaseURL,
			APIVersion: provCfg.APIVersion,
		})
	case "bedrock":
		return providers.NewBedrockProvider(providers.BedrockConfig{Region: cfg.Bedrock.Region})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
}
