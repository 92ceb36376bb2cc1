// Package diff aligns an original text with its rewrite at token level and
// reports typed segments for side-by-side rendering.
package diff

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"NewsIntegrity/internal/domain"
)

var tokenExpr = regexp.MustCompile(`\S+|\s+`)

// Tokenize splits text into alternating whitespace and non-whitespace runs.
// Joining the tokens gives back the input unchanged.
func Tokenize(text string) []string {
	return tokenExpr.FindAllString(text, -1)
}

// Segments diffs original against candidate. Concatenating the unchanged and
// removed segments yields original; unchanged and added yields candidate.
// No two neighbouring segments share a type.
func Segments(original, candidate string) []domain.DiffSegment {
	a := Tokenize(original)
	b := Tokenize(candidate)

	var segments []domain.DiffSegment
	emit := func(typ domain.SegmentType, tokens []string) {
		text := strings.Join(tokens, "")
		// Whitespace-only spans are kept so the segments rebuild both texts.
		if text == "" {
			return
		}
		segments = append(segments, domain.DiffSegment{Type: typ, Text: text})
	}

	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			emit(domain.SegmentUnchanged, a[op.I1:op.I2])
		case 'r':
			emit(domain.SegmentRemoved, a[op.I1:op.I2])
			emit(domain.SegmentAdded, b[op.J1:op.J2])
		case 'd':
			emit(domain.SegmentRemoved, a[op.I1:op.I2])
		case 'i':
			emit(domain.SegmentAdded, b[op.J1:op.J2])
		}
	}

	return merge(segments)
}

// Unchanged is the diff of a text against itself.
func Unchanged(text string) []domain.DiffSegment {
	return []domain.DiffSegment{{Type: domain.SegmentUnchanged, Text: text}}
}

// Original rebuilds the left-hand text from segments.
func Original(segments []domain.DiffSegment) string {
	return join(segments, domain.SegmentRemoved)
}

// Candidate rebuilds the right-hand text from segments.
func Candidate(segments []domain.DiffSegment) string {
	return join(segments, domain.SegmentAdded)
}

func join(segments []domain.DiffSegment, side domain.SegmentType) string {
	var sb strings.Builder
	for _, s := range segments {
		if s.Type == domain.SegmentUnchanged || s.Type == side {
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

func merge(segments []domain.DiffSegment) []domain.DiffSegment {
	merged := make([]domain.DiffSegment, 0, len(segments))
	for _, s := range segments {
		if n := len(merged); n > 0 && merged[n-1].Type == s.Type {
			merged[n-1].Text += s.Text
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
