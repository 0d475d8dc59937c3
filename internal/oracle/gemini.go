package oracle

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"schemadrift/internal/drift"
	"schemadrift/internal/excerpt"
	"schemadrift/internal/repair"
)

// APIKeyEnv is the environment variable holding the Gemini API key.
const APIKeyEnv = "GEMINI_API_KEY"

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiConfig holds configuration for the Gemini oracle.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// DefaultGeminiConfig returns config with the API key taken from the
// environment.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey: os.Getenv(APIKeyEnv),
		Model:  DefaultModel,
	}
}

// Gemini asks a Gemini model for a repair plan. The request carries only
// the excerpt, never the patch itself.
type Gemini struct {
	client *genai.Client
	model  string
	vocab  drift.Vocabulary
	logger *zap.Logger
}

// NewGemini creates a Gemini-backed oracle.
func NewGemini(ctx context.Context, cfg GeminiConfig, vocab drift.Vocabulary, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing %s", APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{
		client: client,
		model:  cfg.Model,
		vocab:  vocab,
		logger: logger,
	}, nil
}

// InferPlan sends the diagnostic prompt and parses the response into a
// plan. Blocking, no retries; a failed or malformed response is fatal for
// the caller's trial.
func (g *Gemini) InferPlan(ctx context.Context, ex *excerpt.Excerpt) (*repair.Plan, error) {
	prompt, err := BuildPrompt(ex, g.vocab)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	raw := resp.Text()
	g.logger.Debug("oracle response received",
		zap.String("model", g.model),
		zap.Int("response_len", len(raw)))

	plan, err := ParsePlan(raw)
	if err != nil {
		g.logger.Warn("oracle response rejected", zap.Error(err))
		return nil, err
	}
	return plan, nil
}
