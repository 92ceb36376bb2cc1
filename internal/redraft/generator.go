package redraft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"NewsIntegrity/internal/diff"
	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
)

// DefaultTimeout bounds a generation call when none is configured.
const DefaultTimeout = 90 * time.Second

var (
	tracer = otel.Tracer("NewsIntegrity/internal/redraft")

	errIncomplete = errors.New("incomplete redraft")
)

// Generator produces neutral rewrites. It always returns a complete result:
// when the collaborator fails the original text comes back unchanged.
type Generator struct {
	generator ports.Generator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGenerator wraps the text-generation collaborator.
func NewGenerator(generator ports.Generator, timeout time.Duration, logger *slog.Logger) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{generator: generator, timeout: timeout, logger: logger}
}

// Redraft rewrites headline and body to address violations and diffs the result.
func (g *Generator) Redraft(ctx context.Context, headline, body string, violations []domain.Violation) domain.RedraftResult {
	ctx, span := tracer.Start(ctx, "redraft.Redraft")
	defer span.End()

	resp, err := g.call(ctx, domain.RedraftRequest{Headline: headline, Body: body, Violations: violations})
	if err != nil {
		g.logger.WarnContext(ctx, "redraft failed, keeping original text", "error", err)
		span.SetAttributes(attribute.Bool("redraft.fallback", true))
		return Fallback(headline, body)
	}

	changes := make([]string, 0, len(resp.ChangesMade))
	for _, c := range resp.ChangesMade {
		if c = strings.TrimSpace(c); c != "" {
			changes = append(changes, c)
		}
	}

	span.SetAttributes(attribute.Int("redraft.changes", len(changes)))
	return domain.RedraftResult{
		OriginalHeadline: headline,
		RedraftHeadline:  resp.RedraftHeadline,
		OriginalBody:     body,
		RedraftBody:      resp.RedraftBody,
		HeadlineDiff:     diff.Segments(headline, resp.RedraftHeadline),
		BodyDiff:         diff.Segments(body, resp.RedraftBody),
		ChangesMade:      changes,
	}
}

func (g *Generator) call(ctx context.Context, req domain.RedraftRequest) (resp domain.RedraftResponse, err error) {
	if g == nil || g.generator == nil {
		return resp, errors.New("no text generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type outcome struct {
		resp domain.RedraftResponse
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		r, err := g.generator.Redraft(ctx, req)
		done <- outcome{resp: r, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return resp, out.err
		}
		if strings.TrimSpace(out.resp.RedraftHeadline) == "" || strings.TrimSpace(out.resp.RedraftBody) == "" {
			return resp, errIncomplete
		}
		return out.resp, nil
	case <-ctx.Done():
		return resp, ctx.Err()
	}
}

// Fallback is the result used when no rewrite could be produced.
func Fallback(headline, body string) domain.RedraftResult {
	return domain.RedraftResult{
		OriginalHeadline: headline,
		RedraftHeadline:  headline,
		OriginalBody:     body,
		RedraftBody:      body,
		HeadlineDiff:     diff.Unchanged(headline),
		BodyDiff:         diff.Unchanged(body),
		ChangesMade:      []string{},
	}
}
