package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/minhyannv/browser-agent-go/pkg/config"
)

// OpenAI completes prompts with an OpenAI-compatible chat completions API.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewOpenAI builds an OpenAI completer. httpClient may be nil. Retries are
// left to Resilient, so the SDK's own retry loop is disabled.
func NewOpenAI(cfg config.ModelConfig, httpClient *http.Client, logger *zap.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %s is not set", config.APIKeyEnv(config.ProviderOpenAI))
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Name,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm.openai"),
	}, nil
}

// Name identifies the provider and model.
func (o *OpenAI) Name() string { return config.ProviderOpenAI + ":" + o.model }

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(float64(o.temperature)),
	}
	if len(stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: stop}
	}

	start := time.Now()
	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	o.logger.Debug("generation complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int64("completion_tokens", completion.Usage.CompletionTokens),
	)

	text := completion.Choices[0].Message.Content
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
