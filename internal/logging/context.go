package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

// Fields are attached to every record logged with the context.
type Fields struct {
	ArticleID uuid.UUID
	OutletID  uuid.UUID
}

// WithArticle tags log records with the article being processed.
func WithArticle(ctx context.Context, id uuid.UUID) context.Context {
	f := FieldsFrom(ctx)
	f.ArticleID = id
	return context.WithValue(ctx, ctxKey{}, f)
}

// WithOutlet tags log records with the outlet being processed.
func WithOutlet(ctx context.Context, id uuid.UUID) context.Context {
	f := FieldsFrom(ctx)
	f.OutletID = id
	return context.WithValue(ctx, ctxKey{}, f)
}

// FieldsFrom returns the fields stored in ctx, or the zero value.
func FieldsFrom(ctx context.Context) Fields {
	if f, ok := ctx.Value(ctxKey{}).(Fields); ok {
		return f
	}
	return Fields{}
}

// TraceHandler adds OpenTelemetry trace/span IDs and context fields to records.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	fields := FieldsFrom(ctx)
	if fields.ArticleID != uuid.Nil {
		r.AddAttrs(slog.String("article_id", fields.ArticleID.String()))
	}
	if fields.OutletID != uuid.Nil {
		r.AddAttrs(slog.String("outlet_id", fields.OutletID.String()))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}
