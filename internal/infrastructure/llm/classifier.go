package llm

import (
	"context"
	"errors"
	"fmt"

	"NewsIntegrity/internal/config"
	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
)

type classifyResponse struct {
	Violations []classifiedViolation `json:"violations"`
}

type classifiedViolation struct {
	Type        string   `json:"type" jsonschema_description:"Rubric rule name"`
	Category    string   `json:"category" jsonschema:"enum=verification,enum=neutrality,enum=fairness"`
	Description string   `json:"description"`
	Deduction   int      `json:"deduction"`
	Instances   []string `json:"instances" jsonschema_description:"Exact text examples from the article"`
}

var classifySchema = GenerateSchema[classifyResponse]()

// Classifier implements ports.Classifier on a Completer. It returns the
// model's violations as-is; rubric normalization happens in scoring.
type Classifier struct {
	completer   Completer
	temperature float64
	maxTokens   int
}

var _ ports.Classifier = (*Classifier)(nil)

func NewClassifier(completer Completer, cfg config.LLMConfig) *Classifier {
	return &Classifier{
		completer:   completer,
		temperature: cfg.Temperature,
		maxTokens:   cfg.ClassifyMaxTokens,
	}
}

func (c *Classifier) Classify(ctx context.Context, req domain.ClassificationRequest) ([]domain.Violation, error) {
	if c == nil || c.completer == nil {
		return nil, errors.New("classifier not configured")
	}

	raw, err := c.completer.Complete(ctx, Request{
		SystemPrompt: scoringSystemPrompt(),
		UserPrompt:   classifyPrompt(req),
		SchemaName:   "violations",
		Schema:       classifySchema,
		MaxTokens:    c.maxTokens,
		Temperature:  Temp(c.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	var resp classifyResponse
	if err := decode(raw, &resp); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	out := make([]domain.Violation, 0, len(resp.Violations))
	for _, v := range resp.Violations {
		out = append(out, domain.Violation{
			Type:        domain.ViolationType(v.Type),
			Category:    domain.Category(v.Category),
			Description: v.Description,
			Deduction:   v.Deduction,
			Instances:   v.Instances,
		})
	}
	return out, nil
}

// Model reports the underlying model name for audit records.
func (c *Classifier) Model() string {
	if c == nil || c.completer == nil {
		return ""
	}
	return c.completer.Model()
}
