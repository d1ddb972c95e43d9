// Package provider defines the chat-model backend configuration and factory
// for selecting an LLM implementation at runtime. Supported backends: Google
// Gemini (default), OpenAI, Azure OpenAI, Ollama.
package provider

import (
	"fmt"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
)

// ProviderGemini holds Gemini-specific configuration.
type ProviderGemini struct {
	// APIKey is the AI Studio API key.
	APIKey string
	// Model is the Gemini model name (e.g. "gemini-1.5-flash").
	Model string
}

// ProviderOpenAI holds OpenAI-specific configuration.
type ProviderOpenAI struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the model name (e.g. "gpt-4o").
	Model string
}

// ProviderAzureOpenAI holds Azure OpenAI Service-specific configuration.
type ProviderAzureOpenAI struct {
	// APIKey is the Azure OpenAI API key.
	APIKey string
	// Endpoint is the Azure OpenAI resource endpoint URL.
	Endpoint string
	// Deployment is the Azure deployment name.
	Deployment string
	// APIVersion is the Azure REST API version (e.g. "2024-02-01").
	APIVersion string
}

// ProviderOllama holds Ollama-specific configuration.
type ProviderOllama struct {
	// Host is the Ollama server base URL.
	Host string
	// Model is the model name (e.g. "llama3").
	Model string
}

// SharedTuning holds generation parameters common to all backends.
type SharedTuning struct {
	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int
	// Temperature controls response randomness (0.0-1.0).
	Temperature float32
}

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values. Only the section matching
// Backend is consulted.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	// Gemini holds Gemini settings (Backend == gemini).
	Gemini ProviderGemini
	// OpenAI holds OpenAI settings (Backend == openai).
	OpenAI ProviderOpenAI
	// AzureOpenAI holds Azure settings (Backend == azure).
	AzureOpenAI ProviderAzureOpenAI
	// Ollama holds Ollama settings (Backend == ollama).
	Ollama ProviderOllama

	// Tuning holds shared generation parameters.
	Tuning SharedTuning
}

// Validate checks that the selected backend's section is complete. Error
// messages name the environment variable an operator should set.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("provider: gemini backend requires GOOGLE_API_KEY")
		}
		if c.Gemini.Model == "" {
			return fmt.Errorf("provider: gemini backend requires GEMINI_MODEL")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: openai backend requires OPENAI_API_KEY")
		}
		if c.OpenAI.Model == "" {
			return fmt.Errorf("provider: openai backend requires OPENAI_MODEL")
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			return fmt.Errorf("provider: azure backend requires AZURE_OPENAI_API_KEY")
		}
		if c.AzureOpenAI.Endpoint == "" {
			return fmt.Errorf("provider: azure backend requires AZURE_OPENAI_ENDPOINT")
		}
		if c.AzureOpenAI.Deployment == "" {
			return fmt.Errorf("provider: azure backend requires AZURE_OPENAI_DEPLOYMENT")
		}
	case BackendOllama:
		if c.Ollama.Model == "" {
			return fmt.Errorf("provider: ollama backend requires OLLAMA_MODEL")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q; valid values: gemini, openai, azure, ollama", c.Backend)
	}
	return nil
}
