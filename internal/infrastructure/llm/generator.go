package llm

import (
	"context"
	"errors"
	"fmt"

	"NewsIntegrity/internal/config"
	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
)

var redraftSchema = GenerateSchema[domain.RedraftResponse]()

// Generator implements ports.Generator on a Completer.
type Generator struct {
	completer   Completer
	temperature float64
	maxTokens   int
}

var _ ports.Generator = (*Generator)(nil)

func NewGenerator(completer Completer, cfg config.LLMConfig) *Generator {
	return &Generator{
		completer:   completer,
		temperature: cfg.Temperature,
		maxTokens:   cfg.RedraftMaxTokens,
	}
}

func (g *Generator) Redraft(ctx context.Context, req domain.RedraftRequest) (domain.RedraftResponse, error) {
	if g == nil || g.completer == nil {
		return domain.RedraftResponse{}, errors.New("generator not configured")
	}

	raw, err := g.completer.Complete(ctx, Request{
		SystemPrompt: redraftSystemPrompt,
		UserPrompt:   redraftPrompt(req),
		SchemaName:   "redraft",
		Schema:       redraftSchema,
		MaxTokens:    g.maxTokens,
		Temperature:  Temp(g.temperature),
	})
	if err != nil {
		return domain.RedraftResponse{}, fmt.Errorf("redraft: %w", err)
	}

	var resp domain.RedraftResponse
	if err := decode(raw, &resp); err != nil {
		return domain.RedraftResponse{}, fmt.Errorf("redraft: %w", err)
	}
	return resp, nil
}
