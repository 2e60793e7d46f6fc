package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/example/weekplan/internal/domain"
	"github.com/example/weekplan/internal/logging"
)

const (
	genaiService      = "genai"
	defaultGenAIModel = "gemini-2.5-flash"
)

const systemPrompt = `You are a weekly planning assistant.
You receive a JSON summary of a user's projects, goals, active tasks, per-project hour targets and capacity for one week.
Choose the tasks the user should work on this week and estimate hours for each.
Only use task ids that appear in the summary. Respect max_hours per project and keep the total near capacity_hours minus recurring_hours.
Answer with JSON only, shaped as:
{"candidates":[{"task_id":"...","estimated_hours":2.5,"priority":1,"rationale":"...","suggested_day":"monday"}],"insights":["..."]}
priority 1 is the most important.`

// contentGenerator is the subset of *genai.Models the gateway calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIConfig configures the Gemini-backed gateway.
type GenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GenAIGateway asks a Gemini model for task proposals in JSON mode.
type GenAIGateway struct {
	models      contentGenerator
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGenAIGateway creates a gateway backed by the Gemini API.
func NewGenAIGateway(ctx context.Context, cfg GenAIConfig, logger *zap.Logger) (*GenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAIGateway(client.Models, cfg, logger), nil
}

func newGenAIGateway(models contentGenerator, cfg GenAIConfig, logger *zap.Logger) *GenAIGateway {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGenAIModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	return &GenAIGateway{
		models:      models,
		model:       model,
		temperature: temperature,
		logger:      logging.OrNop(logger),
	}
}

// ProposePlan implements Gateway.
func (g *GenAIGateway) ProposePlan(ctx context.Context, summary *Summary) (*Proposal, error) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: genaiService, Op: "encode_summary", Err: err}
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(g.temperature),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(string(payload)), config)
	if err != nil {
		ext := domain.NewExternalServiceError(genaiService, "generate_content", err)
		// The caller gave up; another attempt cannot help.
		if errors.Is(err, context.Canceled) {
			ext.Retryable = false
		}
		return nil, ext
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, domain.NewExternalServiceError(genaiService, "generate_content",
			fmt.Errorf("%w: no candidates returned", domain.ErrMalformedResponse))
	}

	proposal, err := DecodeProposal(resp.Text())
	if err != nil {
		// Model output varies between calls, so a malformed answer is retryable.
		return nil, domain.NewExternalServiceError(genaiService, "decode_response", err)
	}

	g.logger.Debug("advisory proposal received",
		zap.String("model", g.model),
		zap.Int("candidates", len(proposal.Candidates)),
		zap.Int("insights", len(proposal.Insights)))
	return proposal, nil
}
