package diff

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"NewsIntegrity/internal/domain"
)

func TestTokenizePreservesWhitespace(t *testing.T) {
	t.Parallel()

	in := "  Senate\tblasts \n\nnew bill "
	tokens := Tokenize(in)
	want := []string{"  ", "Senate", "\t", "blasts", " \n\n", "new", " ", "bill", " "}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Fatalf("unexpected tokens (-want +got):\n%s", diff)
	}
	if strings.Join(tokens, "") != in {
		t.Fatal("tokens do not rebuild the input")
	}
}

func TestSegmentsHeadlineRewrite(t *testing.T) {
	t.Parallel()

	got := Segments("Senate Blasts New Bill", "Senate Criticizes New Bill")
	want := []domain.DiffSegment{
		{Type: domain.SegmentUnchanged, Text: "Senate "},
		{Type: domain.SegmentRemoved, Text: "Blasts"},
		{Type: domain.SegmentAdded, Text: "Criticizes"},
		{Type: domain.SegmentUnchanged, Text: " New Bill"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected segments (-want +got):\n%s", diff)
	}
}

func TestSegmentsEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		original  string
		candidate string
		want      []domain.DiffSegment
	}{
		{"both empty", "", "", []domain.DiffSegment{}},
		{"identical", "No change here.", "No change here.", []domain.DiffSegment{
			{Type: domain.SegmentUnchanged, Text: "No change here."},
		}},
		{"pure insert", "", "Added text", []domain.DiffSegment{
			{Type: domain.SegmentAdded, Text: "Added text"},
		}},
		{"pure delete", "Dropped text", "", []domain.DiffSegment{
			{Type: domain.SegmentRemoved, Text: "Dropped text"},
		}},
		{"trailing delete", "The plan failed badly", "The plan failed", []domain.DiffSegment{
			{Type: domain.SegmentUnchanged, Text: "The plan failed"},
			{Type: domain.SegmentRemoved, Text: " badly"},
		}},
		{"whitespace only change", "a  b", "a b", []domain.DiffSegment{
			{Type: domain.SegmentUnchanged, Text: "a"},
			{Type: domain.SegmentRemoved, Text: "  "},
			{Type: domain.SegmentAdded, Text: " "},
			{Type: domain.SegmentUnchanged, Text: "b"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Segments(tt.original, tt.candidate)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected segments (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegmentsRoundTripAndMergeInvariant(t *testing.T) {
	t.Parallel()

	vocab := []string{"the", "Senate", "blasts", "criticizes", "bill", "radical", "plan", "said", "\"quote\"", "crisis", "vote"}
	spaces := []string{" ", " ", " ", "  ", "\n", "\n\n", "\t"}

	rng := rand.New(rand.NewPCG(3, 5))
	randomText := func() string {
		var sb strings.Builder
		n := rng.IntN(30)
		for i := 0; i < n; i++ {
			if rng.IntN(6) == 0 {
				sb.WriteString(spaces[rng.IntN(len(spaces))])
			}
			sb.WriteString(vocab[rng.IntN(len(vocab))])
			sb.WriteString(spaces[rng.IntN(len(spaces))])
		}
		return sb.String()
	}

	for i := 0; i < 500; i++ {
		original := randomText()
		candidate := randomText()
		if rng.IntN(2) == 0 {
			candidate = strings.Replace(original, "blasts", "criticizes", -1)
		}

		segments := Segments(original, candidate)

		if got := Original(segments); got != original {
			t.Fatalf("iteration %d: original not rebuilt\nwant %q\ngot  %q", i, original, got)
		}
		if got := Candidate(segments); got != candidate {
			t.Fatalf("iteration %d: candidate not rebuilt\nwant %q\ngot  %q", i, candidate, got)
		}
		for j := 1; j < len(segments); j++ {
			if segments[j].Type == segments[j-1].Type {
				t.Fatalf("iteration %d: adjacent segments %d and %d share type %s", i, j-1, j, segments[j].Type)
			}
		}
		for j, s := range segments {
			if s.Text == "" {
				t.Fatalf("iteration %d: segment %d is empty", i, j)
			}
		}
	}
}

func TestMergeCombinesNeighbours(t *testing.T) {
	t.Parallel()

	got := merge([]domain.DiffSegment{
		{Type: domain.SegmentRemoved, Text: "a"},
		{Type: domain.SegmentRemoved, Text: " b"},
		{Type: domain.SegmentAdded, Text: "c"},
		{Type: domain.SegmentAdded, Text: "d"},
		{Type: domain.SegmentUnchanged, Text: "e"},
	})
	want := []domain.DiffSegment{
		{Type: domain.SegmentRemoved, Text: "a b"},
		{Type: domain.SegmentAdded, Text: "cd"},
		{Type: domain.SegmentUnchanged, Text: "e"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
}
