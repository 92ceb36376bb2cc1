package skew

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"NewsIntegrity/internal/domain"
)

func scored(category string, scores ...int) []domain.Article {
	out := make([]domain.Article, 0, len(scores))
	for _, s := range scores {
		out = append(out, domain.Article{ID: uuid.New(), CategoryTag: category, Score: &s})
	}
	return out
}

func concat(groups ...[]domain.Article) []domain.Article {
	var out []domain.Article
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestCalculateNoCategorizedArticles(t *testing.T) {
	t.Parallel()

	unscored := domain.Article{CategoryTag: "elections"}
	untagged := scored("", 40, 50)

	got := Calculate(append(untagged, unscored))
	want := domain.SkewResult{
		CategoryScores:     map[string]domain.CategoryScore{},
		HighSkewCategories: []domain.HighSkewCategory{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestCalculatePenaltyExample(t *testing.T) {
	t.Parallel()

	// A: 5 articles avg 80, B: 4 articles avg 50, C: one article that keeps
	// the global mean at 65 but is too small to qualify.
	articles := concat(
		scored("A", 80, 80, 80, 80, 80),
		scored("B", 50, 50, 50, 50),
		scored("C", 50),
	)

	got := Calculate(articles)

	want := domain.SkewResult{
		GlobalScore: 65,
		CategoryScores: map[string]domain.CategoryScore{
			"A": {Score: 80, Count: 5, Deviation: 15},
			"B": {Score: 50, Count: 4, Deviation: 15},
		},
		SkewPenalty:        6,
		HighSkewCategories: []domain.HighSkewCategory{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestCalculateHighSkewAndCap(t *testing.T) {
	t.Parallel()

	articles := concat(
		scored("economy", 95, 95, 95, 95, 95, 95, 95, 95, 95, 95, 95, 95),
		scored("middle_east", 20, 20, 20),
	)

	got := Calculate(articles)

	// global = (12*95 + 3*20) / 15 = 80; middle_east deviates by 60
	if got.GlobalScore != 80 {
		t.Fatalf("expected global 80, got %v", got.GlobalScore)
	}
	if got.SkewPenalty != MaxPenalty {
		t.Fatalf("expected capped penalty %d, got %d", MaxPenalty, got.SkewPenalty)
	}
	want := []domain.HighSkewCategory{{Category: "middle_east", Score: 20, Deviation: 60}}
	if diff := cmp.Diff(want, got.HighSkewCategories); diff != "" {
		t.Fatalf("unexpected high-skew categories (-want +got):\n%s", diff)
	}
}

func TestCalculateSmallCategoriesExcludedFromMax(t *testing.T) {
	t.Parallel()

	// "tiny" deviates hugely but has only two articles.
	articles := concat(
		scored("big", 70, 70, 70, 70),
		scored("tiny", 10, 10),
	)

	got := Calculate(articles)
	if _, ok := got.CategoryScores["tiny"]; ok {
		t.Fatal("category with fewer than 3 articles must be excluded")
	}
	// global = 300/6 = 50, big deviates by 20 -> round(8.0) = 8
	if got.SkewPenalty != 8 {
		t.Fatalf("expected penalty 8, got %d", got.SkewPenalty)
	}
	if len(got.HighSkewCategories) != 1 || got.HighSkewCategories[0].Category != "big" {
		t.Fatalf("expected big to be high-skew, got %+v", got.HighSkewCategories)
	}
}

func TestCalculateNoQualifyingCategory(t *testing.T) {
	t.Parallel()

	got := Calculate(concat(scored("a", 90, 10), scored("b", 50)))
	if got.SkewPenalty != 0 || len(got.CategoryScores) != 0 {
		t.Fatalf("expected no penalty, got %+v", got)
	}
	if got.GlobalScore != 50 {
		t.Fatalf("expected global 50, got %v", got.GlobalScore)
	}
}

func TestPenaltyRounding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		deviation float64
		want      int
	}{
		{0, 0},
		{15, 6},
		{6.25, 2}, // 2.5 rounds half to even
		{8.75, 4}, // 3.5 rounds half to even
		{16.67, 7},
		{100, 15},
	}
	for _, tt := range tests {
		if got := Penalty(tt.deviation); got != tt.want {
			t.Fatalf("Penalty(%v): expected %d, got %d", tt.deviation, tt.want, got)
		}
	}
}

type stubArticles struct {
	articles []domain.Article
	err      error
}

func (s stubArticles) GetArticle(context.Context, uuid.UUID) (domain.Article, error) {
	return domain.Article{}, domain.ErrNotFound
}

func (s stubArticles) ListUnscored(context.Context, int) ([]domain.Article, error) {
	return nil, nil
}

func (s stubArticles) ListScored(context.Context, uuid.UUID) ([]domain.Article, error) {
	return s.articles, s.err
}

func (s stubArticles) SaveScore(context.Context, domain.ScoreRecord) error {
	return nil
}

func TestCalculatorForOutlet(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(stubArticles{articles: scored("A", 60, 60, 60)})
	got, err := calc.ForOutlet(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ForOutlet returned error: %v", err)
	}
	if got.GlobalScore != 60 || got.SkewPenalty != 0 {
		t.Fatalf("unexpected result %+v", got)
	}

	boom := errors.New("db down")
	_, err = NewCalculator(stubArticles{err: boom}).ForOutlet(context.Background(), uuid.New())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
