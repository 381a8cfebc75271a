// Package ai asks a language model to triage tickets.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/deskflow/ai-ticket-assistant/internal/config"
	"github.com/deskflow/ai-ticket-assistant/internal/domain"
)

// Enricher suggests a priority, helpful notes and related skills for a ticket.
//
// A nil Enrichment with a nil error means the model produced nothing usable.
type Enricher interface {
	Analyze(ctx context.Context, title, description string) (*domain.Enrichment, error)
}

const systemPrompt = `You are an expert AI assistant that triages technical support tickets.
Reply with a single raw JSON object and nothing else, shaped exactly like:
{"priority": "low" | "medium" | "high", "helpfulNotes": "...", "relatedSkills": ["...", "..."]}
helpfulNotes should give a moderator concrete steps and resources to resolve the ticket.
relatedSkills lists the technical skills needed, e.g. "React", "PostgreSQL".`

// OpenAIEnricher calls an OpenAI compatible chat completions endpoint.
type OpenAIEnricher struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewEnricher returns an OpenAI backed enricher, or a disabled one when no API key is set.
func NewEnricher(cfg config.AIConfig, logger *zap.Logger) Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Warn("AI_API_KEY not provided; tickets will not be enriched")
		return disabledEnricher{}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout()),
		// the workflow engine owns retries
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIEnricher{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger.Named("ai"),
	}
}

// Analyze sends the ticket to the model and parses its JSON reply.
//
// Transport failures are returned as errors. Replies that are empty or not valid JSON yield
// a nil Enrichment.
func (e *OpenAIEnricher) Analyze(ctx context.Context, title, description string) (*domain.Enrichment, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf("Analyze this support ticket.\n\nTitle: %s\nDescription: %s", title, description)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		e.logger.Warn("model returned no choices")
		return nil, nil
	}

	enrichment, err := ParseEnrichment(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn("discarding unparseable model reply", zap.Error(err))
		return nil, nil
	}
	return enrichment, nil
}

// ParseEnrichment decodes a model reply, tolerating a surrounding markdown code fence.
func ParseEnrichment(raw string) (*domain.Enrichment, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, errors.New("empty reply")
	}
	var out domain.Enrichment
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &out, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type disabledEnricher struct{}

func (disabledEnricher) Analyze(context.Context, string, string) (*domain.Enrichment, error) {
	return nil, nil
}
