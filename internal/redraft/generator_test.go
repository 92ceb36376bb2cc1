package redraft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"NewsIntegrity/internal/diff"
	"NewsIntegrity/internal/domain"
)

type stubGenerator struct {
	resp  domain.RedraftResponse
	err   error
	block bool
	got   domain.RedraftRequest
}

func (s *stubGenerator) Redraft(ctx context.Context, req domain.RedraftRequest) (domain.RedraftResponse, error) {
	s.got = req
	if s.block {
		<-ctx.Done()
		return domain.RedraftResponse{}, ctx.Err()
	}
	return s.resp, s.err
}

const (
	headline = "Senate Blasts Disastrous Scheme"
	body     = "Lawmakers slammed the radical scheme on Tuesday. \"It is a disaster,\" one senator said."
)

func TestRedraftSuccess(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{resp: domain.RedraftResponse{
		RedraftHeadline: "Senate Criticizes Plan",
		RedraftBody:     "Lawmakers criticized the plan on Tuesday. \"It is a disaster,\" one senator said.",
		ChangesMade:     []string{"Replaced 'slammed' with 'criticized'", " ", "Replaced 'scheme' with 'plan'"},
	}}
	violations := []domain.Violation{{Type: domain.ViolationLoadedLanguage, Category: domain.CategoryNeutrality, Deduction: 6}}

	res := NewGenerator(stub, time.Second, nil).Redraft(context.Background(), headline, body, violations)

	if diff := cmp.Diff(violations, stub.got.Violations); diff != "" {
		t.Fatalf("violations not forwarded (-want +got):\n%s", diff)
	}
	if res.RedraftHeadline != "Senate Criticizes Plan" {
		t.Fatalf("unexpected headline %q", res.RedraftHeadline)
	}
	if len(res.ChangesMade) != 2 {
		t.Fatalf("expected blank changes to be dropped, got %q", res.ChangesMade)
	}
	if diff.Original(res.BodyDiff) != body || diff.Candidate(res.BodyDiff) != res.RedraftBody {
		t.Fatal("body diff does not round-trip")
	}
	if diff.Original(res.HeadlineDiff) != headline || diff.Candidate(res.HeadlineDiff) != res.RedraftHeadline {
		t.Fatal("headline diff does not round-trip")
	}
}

func TestRedraftFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		stub *stubGenerator
	}{
		{"collaborator error", &stubGenerator{err: errors.New("unparseable JSON")}},
		{"missing headline", &stubGenerator{resp: domain.RedraftResponse{RedraftBody: "Only a body"}}},
		{"blank body", &stubGenerator{resp: domain.RedraftResponse{RedraftHeadline: "Only a headline", RedraftBody: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := NewGenerator(tt.stub, time.Second, nil).Redraft(context.Background(), headline, body, nil)
			if diff := cmp.Diff(Fallback(headline, body), res); diff != "" {
				t.Fatalf("expected fallback (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRedraftTimeoutFallsBack(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	res := NewGenerator(&stubGenerator{block: true}, 20*time.Millisecond, nil).
		Redraft(context.Background(), headline, body, nil)

	want := domain.RedraftResult{
		OriginalHeadline: headline,
		RedraftHeadline:  headline,
		OriginalBody:     body,
		RedraftBody:      body,
		HeadlineDiff:     []domain.DiffSegment{{Type: domain.SegmentUnchanged, Text: headline}},
		BodyDiff:         []domain.DiffSegment{{Type: domain.SegmentUnchanged, Text: body}},
		ChangesMade:      []string{},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("unexpected fallback (-want +got):\n%s", diff)
	}
}

func TestRedraftWithoutGenerator(t *testing.T) {
	t.Parallel()

	res := NewGenerator(nil, 0, nil).Redraft(context.Background(), headline, body, nil)
	if res.RedraftBody != body || len(res.BodyDiff) != 1 {
		t.Fatalf("expected fallback, got %+v", res)
	}
}
