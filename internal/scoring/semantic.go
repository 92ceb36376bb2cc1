package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
	"NewsIntegrity/internal/rubric"
)

// DefaultClassifyTimeout bounds a classification call when none is configured.
const DefaultClassifyTimeout = 60 * time.Second

// SemanticClassifier asks the classification collaborator for rubric
// violations that cannot be caught lexically. It never fails: any error
// degrades to an empty result.
type SemanticClassifier struct {
	classifier ports.Classifier
	timeout    time.Duration
	logger     *slog.Logger
}

// NewSemanticClassifier wraps a collaborator; a nil collaborator yields no violations.
func NewSemanticClassifier(classifier ports.Classifier, timeout time.Duration, logger *slog.Logger) *SemanticClassifier {
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticClassifier{classifier: classifier, timeout: timeout, logger: logger}
}

// Classify returns normalized violations, or nil when the collaborator fails.
func (c *SemanticClassifier) Classify(ctx context.Context, req domain.ClassificationRequest) []domain.Violation {
	if c == nil || c.classifier == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		violations []domain.Violation
		err        error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("classifier panic: %v", r)}
			}
		}()
		v, err := c.classifier.Classify(ctx, req)
		done <- outcome{violations: v, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		res = outcome{err: ctx.Err()}
	}

	if res.err != nil {
		level := slog.LevelWarn
		if errors.Is(res.err, context.Canceled) {
			level = slog.LevelInfo
		}
		c.logger.Log(ctx, level, "semantic classification failed, using lexical scan only",
			"outlet", req.OutletName, "error", res.err)
		return nil
	}

	return NormalizeSemantic(res.violations)
}

// NormalizeSemantic pins every collaborator violation to the rubric: unknown
// and lexical-only types are dropped, categories come from the rubric,
// deductions are non-negative (a missing one stays zero) and blank instances
// are removed.
func NormalizeSemantic(raw []domain.Violation) []domain.Violation {
	out := make([]domain.Violation, 0, len(raw))
	for _, v := range raw {
		rule, ok := rubric.Lookup(string(v.Type))
		if !ok || rule.Lexical {
			continue
		}

		deduction := v.Deduction
		if deduction < 0 {
			deduction = -deduction
		}

		description := strings.TrimSpace(v.Description)
		if description == "" {
			description = rule.Description
		}

		out = append(out, domain.Violation{
			Type:        rule.Type,
			Category:    rule.Category,
			Description: description,
			Deduction:   deduction,
			Instances:   cleanInstances(v.Instances),
		})
	}
	return out
}

func cleanInstances(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
