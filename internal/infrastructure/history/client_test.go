package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"NewsIntegrity/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestHistoricalContext(t *testing.T) {
	t.Parallel()

	article := domain.Article{ID: uuid.New(), Headline: "Senate passes budget"}
	outlet := domain.Outlet{Domain: "daily.example"}

	var got queryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(queryResponse{Matches: []Match{
			{ArticleID: article.ID.String(), Text: "the article itself"},
			{ArticleID: "a1", Text: strings.Repeat("x", 250), Score: intPtr(64)},
			{ArticleID: "a1", Text: "second chunk of a1"},
			{ArticleID: "a2", Text: "short", Score: intPtr(0)},
			{ArticleID: "a3", Text: "third"},
			{ArticleID: "a4", Text: "fourth"},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", 3, time.Second)
	text, err := c.HistoricalContext(context.Background(), outlet, article)
	if err != nil {
		t.Fatalf("HistoricalContext: %v", err)
	}

	want := strings.Join([]string{
		"Previous coverage by this outlet:",
		"- " + strings.Repeat("x", 200) + "... (Score: 64/100)",
		"- short...",
		"- third...",
	}, "\n")
	if diff := cmp.Diff(want, text); diff != "" {
		t.Fatalf("unexpected context (-want +got):\n%s", diff)
	}

	wantReq := queryRequest{Headline: article.Headline, OutletDomain: "daily.example", TopK: 6, ExcludeArticleID: article.ID.String()}
	if diff := cmp.Diff(wantReq, got); diff != "" {
		t.Fatalf("unexpected request (-want +got):\n%s", diff)
	}
}

func TestHistoricalContextErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "index unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0, time.Second).HistoricalContext(context.Background(), domain.Outlet{}, domain.Article{})
	if err == nil || !strings.Contains(err.Error(), "index unavailable") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	t.Parallel()

	c := NewClient("", "", 0, 0)
	if text, err := c.HistoricalContext(context.Background(), domain.Outlet{}, domain.Article{}); err != nil || text != "" {
		t.Fatalf("expected empty context, got %q, %v", text, err)
	}
	if err := c.Index(context.Background(), domain.Outlet{}, domain.Article{}, 90); err != nil {
		t.Fatalf("expected no-op index, got %v", err)
	}
}

func TestIndexUpsertsChunks(t *testing.T) {
	t.Parallel()

	article := domain.Article{
		ID:          uuid.New(),
		Headline:    "Headline",
		Body:        strings.Repeat("Sentence here. ", 100),
		CategoryTag: "economy",
		PublishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	var got upsertRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upsert" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "", 0, time.Second).Index(context.Background(), domain.Outlet{Domain: "daily.example"}, article, 77)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}

	if got.ArticleID != article.ID.String() || got.Score != 77 || got.TopicSlug != "economy" || got.OutletDomain != "daily.example" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if len(got.Chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got.Chunks))
	}
	for i, c := range got.Chunks {
		if c.Index != i || c.ID != article.ID.String()+"_"+string(rune('0'+i)) {
			t.Fatalf("chunk %d has id %q index %d", i, c.ID, c.Index)
		}
		if len([]rune(c.Text)) > storedTextRunes {
			t.Fatalf("chunk %d text not truncated", i)
		}
	}
}

func TestChunkText(t *testing.T) {
	t.Parallel()

	if got := ChunkText("short text"); len(got) != 1 || got[0] != "short text" {
		t.Fatalf("unexpected chunks %q", got)
	}

	text := strings.Repeat("a", 700) + "." + strings.Repeat("b", 800)
	chunks := ChunkText(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") || len(chunks[0]) != 701 {
		t.Fatalf("first chunk should end at the sentence boundary, got len %d", len(chunks[0]))
	}
	if !strings.HasPrefix(chunks[1], strings.Repeat("a", chunkOverlap-1)+".") {
		t.Fatal("second chunk should overlap the first")
	}
	if !strings.HasSuffix(chunks[1], "b") {
		t.Fatal("last chunk should reach the end of the text")
	}
}
