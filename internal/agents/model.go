package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/dyike/EquityGo/config"
)

// NewChatModel builds the chat model for the configured provider. Reports
// need deterministic numbers, so temperature stays at zero.
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	switch cfg.LLMProvider {
	case "deepseek":
		return newDeepSeekModel(ctx, cfg)
	default:
		return newOpenAIModel(ctx, cfg)
	}
}

func newOpenAIModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	maxTokens := cfg.MaxTokens
	temperature := float32(0)
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI model: %v", err)
	}
	return chatModel, nil
}

func newDeepSeekModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	if cfg.DeepSeekAPIKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY is not set")
	}

	chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:    cfg.DeepSeekAPIKey,
		Model:     cfg.DeepSeekModel,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DeepSeek model: %v", err)
	}
	return chatModel, nil
}
