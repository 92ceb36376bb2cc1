// Package history talks to the vector-search service that remembers how each
// outlet covered earlier stories.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsIntegrity/internal/domain"
	"NewsIntegrity/internal/ports"
)

const (
	defaultTopK      = 3
	contextItems     = 3
	contextTextRunes = 200
	chunkSize        = 1000
	chunkOverlap     = 100
	storedTextRunes  = 500
)

// Client implements ports.ContextProvider and ports.ArticleIndex over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	topK     int
	http     *http.Client
}

var (
	_ ports.ContextProvider = (*Client)(nil)
	_ ports.ArticleIndex    = (*Client)(nil)
)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, topK int, timeout time.Duration) *Client {
	if topK <= 0 {
		topK = defaultTopK
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		topK:     topK,
		http:     &http.Client{Timeout: timeout},
	}
}

// Match is one prior article returned by the search service.
type Match struct {
	ArticleID   string  `json:"article_id"`
	Text        string  `json:"text"`
	Score       *int    `json:"score"`
	PublishedAt string  `json:"published_at"`
	Similarity  float64 `json:"similarity"`
}

type queryRequest struct {
	Headline         string `json:"headline"`
	OutletDomain     string `json:"outlet_domain"`
	TopK             int    `json:"top_k"`
	ExcludeArticleID string `json:"exclude_article_id"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

// HistoricalContext returns a prompt-ready summary of the outlet's most
// similar earlier articles, or "" when there are none.
func (c *Client) HistoricalContext(ctx context.Context, outlet domain.Outlet, article domain.Article) (string, error) {
	if c == nil || c.endpoint == "" {
		return "", nil
	}

	payload := queryRequest{
		Headline:         article.Headline,
		OutletDomain:     outlet.Domain,
		TopK:             c.topK * 2,
		ExcludeArticleID: article.ID.String(),
	}

	var resp queryResponse
	if err := c.post(ctx, "/query", payload, &resp); err != nil {
		return "", fmt.Errorf("query history: %w", err)
	}

	return FormatContext(dedupe(resp.Matches, article.ID.String(), c.topK)), nil
}

type chunk struct {
	ID    string `json:"id"`
	Index int    `json:"chunk_index"`
	Text  string `json:"text"`
}

type upsertRequest struct {
	ArticleID    string    `json:"article_id"`
	OutletDomain string    `json:"outlet_domain"`
	TopicSlug    string    `json:"topic_slug"`
	PublishedAt  time.Time `json:"published_at"`
	Score        int       `json:"score"`
	Chunks       []chunk   `json:"chunks"`
}

// Index stores a scored article so later articles can be compared to it.
func (c *Client) Index(ctx context.Context, outlet domain.Outlet, article domain.Article, score int) error {
	if c == nil || c.endpoint == "" {
		return nil
	}

	id := article.ID.String()
	parts := ChunkText(article.Headline + "\n\n" + article.Body)
	chunks := make([]chunk, 0, len(parts))
	for i, text := range parts {
		chunks = append(chunks, chunk{
			ID:    fmt.Sprintf("%s_%d", id, i),
			Index: i,
			Text:  truncate(text, storedTextRunes),
		})
	}

	payload := upsertRequest{
		ArticleID:    id,
		OutletDomain: outlet.Domain,
		TopicSlug:    article.CategoryTag,
		PublishedAt:  article.PublishedAt,
		Score:        score,
		Chunks:       chunks,
	}
	if err := c.post(ctx, "/upsert", payload, nil); err != nil {
		return fmt.Errorf("index article %s: %w", id, err)
	}
	return nil
}

// FormatContext renders up to three matches under a fixed header.
func FormatContext(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}

	lines := []string{"Previous coverage by this outlet:"}
	for _, m := range matches[:min(len(matches), contextItems)] {
		line := "- " + truncate(m.Text, contextTextRunes) + "..."
		if m.Score != nil && *m.Score > 0 {
			line += fmt.Sprintf(" (Score: %d/100)", *m.Score)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ChunkText splits text into overlapping chunks, preferring to end a chunk
// on a sentence boundary in its second half.
func ChunkText(text string) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		for i := end; i > start+chunkSize/2; i-- {
			if strings.ContainsRune(".!?\n", runes[i]) {
				end = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - chunkOverlap
	}
	return chunks
}

func dedupe(matches []Match, exclude string, limit int) []Match {
	seen := map[string]bool{}
	out := make([]Match, 0, limit)
	for _, m := range matches {
		if m.ArticleID == exclude || seen[m.ArticleID] {
			continue
		}
		seen[m.ArticleID] = true
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
