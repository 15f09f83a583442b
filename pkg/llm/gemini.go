package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/minhyannv/browser-agent-go/pkg/config"
)

// Gemini completes prompts with the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGemini builds a Gemini completer. httpClient may be nil.
func NewGemini(ctx context.Context, cfg config.ModelConfig, httpClient *http.Client, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %s is not set", config.APIKeyEnv(config.ProviderGemini))
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		client:      client,
		model:       cfg.Name,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm.gemini"),
	}, nil
}

// Name identifies the provider and model.
func (g *Gemini) Name() string { return config.ProviderGemini + ":" + g.model }

// Complete sends prompt as a single user turn.
func (g *Gemini) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:   genai.Ptr(g.temperature),
		StopSequences: stop,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	fields := []zap.Field{zap.Duration("elapsed", time.Since(start))}
	if resp.UsageMetadata != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}
	g.logger.Debug("generation complete", fields...)

	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
