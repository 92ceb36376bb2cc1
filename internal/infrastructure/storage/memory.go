package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
)

// MemoryStore keeps outlets and articles in process. It backs the offline
// CLI commands and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	outlets  map[uuid.UUID]domain.Outlet
	articles map[uuid.UUID]domain.Article
	audits   []domain.ScoringAudit
}

var (
	_ ports.ArticleRepository = (*MemoryStore)(nil)
	_ ports.OutletRepository  = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		outlets:  map[uuid.UUID]domain.Outlet{},
		articles: map[uuid.UUID]domain.Article{},
	}
}

// PutOutlet inserts or replaces an outlet.
func (m *MemoryStore) PutOutlet(o domain.Outlet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outlets[o.ID] = o
}

// PutArticle inserts or replaces an article.
func (m *MemoryStore) PutArticle(a domain.Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles[a.ID] = cloneArticle(a)
}

// Audits returns the audit trail of one article in write order.
func (m *MemoryStore) Audits(articleID uuid.UUID) []domain.ScoringAudit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ScoringAudit
	for _, a := range m.audits {
		if a.ArticleID == articleID {
			out = append(out, a)
		}
	}
	return out
}

func (m *MemoryStore) GetArticle(_ context.Context, id uuid.UUID) (domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.articles[id]
	if !ok {
		return domain.Article{}, domain.ErrNotFound
	}
	return cloneArticle(a), nil
}

func (m *MemoryStore) ListUnscored(_ context.Context, limit int) ([]domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Article
	for _, a := range m.articles {
		if a.Scored() {
			continue
		}
		if o, ok := m.outlets[a.OutletID]; ok && o.IsWireService {
			continue
		}
		out = append(out, cloneArticle(a))
	}
	sortByScraped(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListScored(_ context.Context, outletID uuid.UUID) ([]domain.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Article
	for _, a := range m.articles {
		if a.OutletID == outletID && a.Scored() {
			out = append(out, cloneArticle(a))
		}
	}
	sortByScraped(out)
	return out, nil
}

func (m *MemoryStore) SaveScore(_ context.Context, rec domain.ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[rec.ArticleID]
	if !ok {
		return domain.ErrNotFound
	}

	score := rec.Score
	scoredAt := rec.ScoredAt
	a.Score = &score
	a.ScoredAt = &scoredAt
	a.Violations = slices.Clone(rec.Violations)
	a.Redraft = nil
	if rec.Redraft != nil {
		a.Redraft = &domain.Redraft{
			Headline: rec.Redraft.RedraftHeadline,
			Body:     rec.Redraft.RedraftBody,
			Diff:     rec.Redraft.Diff(),
		}
	}
	m.articles[a.ID] = a

	audit := rec.Audit
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	audit.ArticleID = rec.ArticleID
	m.audits = append(m.audits, audit)
	return nil
}

func (m *MemoryStore) GetOutlet(_ context.Context, id uuid.UUID) (domain.Outlet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.outlets[id]
	if !ok {
		return domain.Outlet{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *MemoryStore) ListRollupTargets(_ context.Context) ([]domain.Outlet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Outlet
	for _, o := range m.outlets {
		if !o.IsWireService {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b domain.Outlet) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (m *MemoryStore) UpdateAggregate(_ context.Context, agg domain.OutletAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.outlets[agg.OutletID]
	if !ok {
		return domain.ErrNotFound
	}
	o.BattingAverage = agg.BattingAverage
	o.TotalArticles = agg.TotalArticles
	o.UpdatedAt = time.Now().UTC()
	m.outlets[o.ID] = o
	return nil
}

func cloneArticle(a domain.Article) domain.Article {
	a.Violations = slices.Clone(a.Violations)
	if a.Score != nil {
		score := *a.Score
		a.Score = &score
	}
	if a.ScoredAt != nil {
		at := *a.ScoredAt
		a.ScoredAt = &at
	}
	if a.Redraft != nil {
		r := *a.Redraft
		a.Redraft = &r
	}
	return a
}

func sortByScraped(articles []domain.Article) {
	slices.SortStableFunc(articles, func(a, b domain.Article) int {
		if c := a.ScrapedAt.Compare(b.ScrapedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
