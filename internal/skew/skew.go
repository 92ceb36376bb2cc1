// Package skew measures how far an outlet's per-topic averages drift from its
// overall average and converts the worst drift into a penalty.
package skew

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
)

const (
	// MinCategoryArticles is the sample size below which a category is ignored.
	MinCategoryArticles = 3
	// HighSkewDeviation flags categories whose deviation exceeds it.
	HighSkewDeviation = 15.0
	// PenaltyFactor converts the largest deviation into penalty points.
	PenaltyFactor = 0.4
	// MaxPenalty caps the penalty.
	MaxPenalty = 15
)

// Calculate computes the skew of one outlet's articles. Articles without a
// score or without a category tag are ignored.
func Calculate(articles []domain.Article) domain.SkewResult {
	byCategory := map[string][]int{}
	var order []string
	total, n := 0, 0

	for _, a := range articles {
		if a.Score == nil || a.CategoryTag == "" {
			continue
		}
		if _, ok := byCategory[a.CategoryTag]; !ok {
			order = append(order, a.CategoryTag)
		}
		byCategory[a.CategoryTag] = append(byCategory[a.CategoryTag], *a.Score)
		total += *a.Score
		n++
	}

	res := domain.SkewResult{
		CategoryScores:     map[string]domain.CategoryScore{},
		HighSkewCategories: []domain.HighSkewCategory{},
	}
	if n == 0 {
		return res
	}

	global := float64(total) / float64(n)
	res.GlobalScore = round1(global)

	maxDeviation := 0.0
	qualified := false
	slices.Sort(order)
	for _, category := range order {
		scores := byCategory[category]
		if len(scores) < MinCategoryArticles {
			continue
		}

		avg := mean(scores)
		deviation := math.Abs(avg - global)
		res.CategoryScores[category] = domain.CategoryScore{
			Score:     round1(avg),
			Count:     len(scores),
			Deviation: round1(deviation),
		}

		if deviation > HighSkewDeviation {
			res.HighSkewCategories = append(res.HighSkewCategories, domain.HighSkewCategory{
				Category:  category,
				Score:     round1(avg),
				Deviation: round1(deviation),
			})
		}

		if !qualified || deviation > maxDeviation {
			maxDeviation = deviation
			qualified = true
		}
	}

	if qualified {
		res.SkewPenalty = Penalty(maxDeviation)
	}
	return res
}

// Penalty converts a deviation into penalty points, rounding half to even.
func Penalty(deviation float64) int {
	return min(int(math.RoundToEven(deviation*PenaltyFactor)), MaxPenalty)
}

// Calculator loads an outlet's scored articles and computes their skew.
type Calculator struct {
	articles ports.ArticleRepository
}

// NewCalculator builds a calculator backed by the article repository.
func NewCalculator(articles ports.ArticleRepository) *Calculator {
	return &Calculator{articles: articles}
}

// ForOutlet computes the skew of one outlet.
func (c *Calculator) ForOutlet(ctx context.Context, outletID uuid.UUID) (domain.SkewResult, error) {
	articles, err := c.articles.ListScored(ctx, outletID)
	if err != nil {
		return domain.SkewResult{}, fmt.Errorf("list scored articles: %w", err)
	}
	return Calculate(articles), nil
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
