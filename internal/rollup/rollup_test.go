package rollup

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/goleak"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/infrastructure/storage"
)

func seedOutlet(store *storage.MemoryStore, name string, wire bool) domain.Outlet {
	o := domain.Outlet{ID: uuid.New(), Name: name, Domain: name + ".example", IsWireService: wire}
	store.PutOutlet(o)
	return o
}

func seedScored(store *storage.MemoryStore, outletID uuid.UUID, category string, scores ...int) {
	for _, s := range scores {
		store.PutArticle(domain.Article{
			ID:          uuid.New(),
			OutletID:    outletID,
			Headline:    "h",
			Body:        "b",
			CategoryTag: category,
			ScrapedAt:   time.Now(),
			Score:       &s,
		})
	}
}

func TestRollupAppliesSkewPenalty(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	outlet := seedOutlet(store, "daily", false)
	seedScored(store, outlet.ID, "A", 80, 80, 80, 80, 80)
	seedScored(store, outlet.ID, "B", 50, 50, 50, 50)
	seedScored(store, outlet.ID, "C", 50)
	store.PutArticle(domain.Article{ID: uuid.New(), OutletID: outlet.ID, CategoryTag: "A"})

	svc := NewService(store, store, nil, nil)
	got, err := svc.Rollup(context.Background(), outlet.ID)
	if err != nil {
		t.Fatalf("Rollup returned error: %v", err)
	}

	want := domain.OutletAggregate{OutletID: outlet.ID, BattingAverage: 59, TotalArticles: 10, SkewPenalty: 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected aggregate (-want +got):\n%s", diff)
	}

	stored, err := store.GetOutlet(context.Background(), outlet.ID)
	if err != nil {
		t.Fatalf("GetOutlet: %v", err)
	}
	if stored.BattingAverage != 59 || stored.TotalArticles != 10 {
		t.Fatalf("outlet not updated: %+v", stored)
	}
}

func TestRollupIsIdempotent(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	outlet := seedOutlet(store, "daily", false)
	seedScored(store, outlet.ID, "politics", 72, 91, 64)
	seedScored(store, outlet.ID, "", 33)

	svc := NewService(store, store, nil, nil)
	first, err := svc.Rollup(context.Background(), outlet.ID)
	if err != nil {
		t.Fatalf("first rollup: %v", err)
	}
	second, err := svc.Rollup(context.Background(), outlet.ID)
	if err != nil {
		t.Fatalf("second rollup: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("rollup not idempotent (-first +second):\n%s", diff)
	}
	// (72+91+64+33)/4 = 65
	if first.BattingAverage != 65 {
		t.Fatalf("expected 65, got %v", first.BattingAverage)
	}
}

func TestRollupWithoutScoredArticles(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	outlet := seedOutlet(store, "quiet", false)

	got, err := NewService(store, store, nil, nil).Rollup(context.Background(), outlet.ID)
	if err != nil {
		t.Fatalf("Rollup returned error: %v", err)
	}
	if got.BattingAverage != 0 || got.TotalArticles != 0 || got.SkewPenalty != 0 {
		t.Fatalf("expected zero aggregate, got %+v", got)
	}
}

func TestRollupUnknownOutlet(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	_, err := NewService(store, store, nil, nil).Rollup(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestComputeStaysInBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	categories := []string{"", "a", "b", "c"}
	for i := 0; i < 500; i++ {
		var articles []domain.Article
		for j := rng.IntN(30); j > 0; j-- {
			s := rng.IntN(101)
			articles = append(articles, domain.Article{CategoryTag: categories[rng.IntN(len(categories))], Score: &s})
		}
		agg := Compute(uuid.Nil, articles)
		if agg.BattingAverage < 0 || agg.BattingAverage > 100 {
			t.Fatalf("batting average out of bounds: %v", agg.BattingAverage)
		}
		if agg.SkewPenalty < 0 || agg.SkewPenalty > 15 {
			t.Fatalf("skew penalty out of bounds: %d", agg.SkewPenalty)
		}
		if agg.TotalArticles != len(articles) {
			t.Fatalf("expected %d articles, got %d", len(articles), agg.TotalArticles)
		}
	}
}

func TestComputeClampsAtZero(t *testing.T) {
	t.Parallel()

	low, high := 0, 100
	var articles []domain.Article
	for range 3 {
		articles = append(articles, domain.Article{CategoryTag: "x", Score: &low})
	}
	articles = append(articles, domain.Article{CategoryTag: "y", Score: &high})

	// raw 25, x deviates by 25 -> penalty 10; 15 remains
	if got := Compute(uuid.Nil, articles).BattingAverage; got != 15 {
		t.Fatalf("expected 15, got %v", got)
	}

	// raw 10, x deviates by 90 -> capped penalty 15 drives it below zero
	articles = articles[:0]
	for range 3 {
		articles = append(articles, domain.Article{CategoryTag: "x", Score: &high})
	}
	for range 27 {
		articles = append(articles, domain.Article{CategoryTag: "y", Score: &low})
	}
	agg := Compute(uuid.Nil, articles)
	if agg.BattingAverage != 0 || agg.SkewPenalty != 15 {
		t.Fatalf("expected clamped 0 with penalty 15, got %+v", agg)
	}
}

func TestRollupAllContinuesPastFailures(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	a := seedOutlet(store, "alpha", false)
	b := seedOutlet(store, "bravo", false)
	seedOutlet(store, "wire", true)
	seedScored(store, a.ID, "", 90)
	seedScored(store, b.ID, "", 40)

	boom := errors.New("write failed")
	outlets := &failingOutlets{MemoryStore: store, failFor: a.ID, err: boom}

	aggs, err := NewService(store, outlets, nil, nil).RollupAll(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(aggs) != 1 || aggs[0].OutletID != b.ID || aggs[0].BattingAverage != 40 {
		t.Fatalf("unexpected aggregates %+v", aggs)
	}
}

type failingOutlets struct {
	*storage.MemoryStore
	failFor uuid.UUID
	err     error
}

func (f *failingOutlets) UpdateAggregate(ctx context.Context, agg domain.OutletAggregate) error {
	if agg.OutletID == f.failFor {
		return f.err
	}
	return f.MemoryStore.UpdateAggregate(ctx, agg)
}

type countingOutlets struct {
	*storage.MemoryStore
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (c *countingOutlets) UpdateAggregate(ctx context.Context, agg domain.OutletAggregate) error {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		seen := c.maxSeen.Load()
		if n <= seen || c.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return c.MemoryStore.UpdateAggregate(ctx, agg)
}

func TestRollupSerializesPerOutlet(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := storage.NewMemoryStore()
	outlet := seedOutlet(store, "busy", false)
	seedScored(store, outlet.ID, "", 70, 80)
	counting := &countingOutlets{MemoryStore: store}
	svc := NewService(store, counting, NewKeyedLocker(), nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Rollup(context.Background(), outlet.ID); err != nil {
				t.Errorf("Rollup: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := counting.maxSeen.Load(); got != 1 {
		t.Fatalf("expected serialized updates, saw %d concurrent", got)
	}
}

func TestKeyedLockerHonoursContext(t *testing.T) {
	t.Parallel()

	locker := NewKeyedLocker()
	release, err := locker.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	other, err := locker.Lock(context.Background(), "other")
	if err != nil {
		t.Fatalf("independent key blocked: %v", err)
	}
	other()

	release()
	release()
	again, err := locker.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	again()
}
