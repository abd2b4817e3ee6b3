// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/halcyon-labs/docvault/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/halcyon-labs/docvault/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/halcyon-labs/docvault/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/halcyon-labs/docvault/internal/adapters/driven/llm/ollama"
	openaillm "github.com/halcyon-labs/docvault/internal/adapters/driven/llm/openai"
	"github.com/halcyon-labs/docvault/internal/config"
	"github.com/halcyon-labs/docvault/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service and
// validates connectivity. Embedding is mandatory: a missing or
// unreachable provider is a hard error.
func CreateAndValidateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates
// connectivity. The LLM is optional: returns (nil, nil) when no
// provider is configured, and the caller degrades to retrieval-only
// answers.
func CreateAndValidateLLMService(cfg config.LLMConfig) (driven.LLMService, error) {
	if !cfg.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("llm service unreachable: %w", err)
	}
	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service
// based on configuration.
func CreateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	case config.ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})

	case config.ProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on
// configuration.
func CreateLLMService(cfg config.LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case config.ProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case config.ProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
