package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/yuhaojin/stocklens/internal/config"
)

// Provider generates a text completion from a prompt. Implementations wrap
// a single LLM vendor SDK.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)
}

const generationTemperature = 0.3

// NewProvider builds the provider named by name ("gemini" or "anthropic").
// An empty name selects the configured default.
func NewProvider(ctx context.Context, cfg *config.Config, name string, log zerolog.Logger) (Provider, error) {
	if name == "" {
		name = cfg.DefaultAIProvider
	}
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured, set GEMINI_API_KEY")
		}
		return newGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured, set ANTHROPIC_API_KEY")
		}
		return newAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, log), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q, supported providers: gemini, anthropic", name)
	}
}

// GeminiProvider generates completions through the Google GenAI SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

func newGeminiProvider(ctx context.Context, apiKey, model string, log zerolog.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	log.Info().Str("model", model).Msg("Gemini provider initialized")

	return &GeminiProvider{
		client: client,
		model:  model,
		log:    log.With().Str("provider", "gemini").Logger(),
	}, nil
}

// Name returns the provider identifier
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Generate sends the prompt to Gemini and returns the concatenated text parts
func (p *GeminiProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(generationTemperature)),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return sb.String(), nil
}

// AnthropicProvider generates completions through the Anthropic SDK.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
	log    zerolog.Logger
}

func newAnthropicProvider(apiKey, model string, log zerolog.Logger) *AnthropicProvider {
	log.Info().Str("model", model).Msg("Anthropic provider initialized")

	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		log:    log.With().Str("provider", "anthropic").Logger(),
	}
}

// Name returns the provider identifier
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Generate sends the prompt to Claude and returns the concatenated text blocks
func (p *AnthropicProvider) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   4096,
		Temperature: anthropic.Float(generationTemperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generation failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic returned an empty response")
	}
	return sb.String(), nil
}
