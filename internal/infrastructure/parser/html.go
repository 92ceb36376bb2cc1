package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoContent is returned when a page has no headline or no body text.
var ErrNoContent = errors.New("page has no article content")

// Selectors locate article parts in a page. Empty fields use the defaults.
type Selectors struct {
	Headline string
	Body     string
	Date     string
}

// DefaultSelectors match most news article templates.
var DefaultSelectors = Selectors{
	Headline: "h1",
	Body:     "article p",
	Date:     "time[datetime]",
}

// Extracted is the article text pulled from one page.
type Extracted struct {
	Headline    string
	Body        string
	PublishedAt time.Time
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ArticleParser fetches and extracts article pages.
type ArticleParser struct {
	client    *http.Client
	selectors Selectors
}

// NewArticleParser wires an HTTP client; a nil client gets a 20s timeout.
func NewArticleParser(client *http.Client, selectors Selectors) *ArticleParser {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArticleParser{client: client, selectors: selectors.withDefaults()}
}

// Fetch downloads pageURL and extracts its article.
func (p *ArticleParser) Fetch(ctx context.Context, pageURL string) (Extracted, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Extracted{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsIntegrity/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return Extracted{}, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Extracted{}, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	return ExtractArticle(resp.Body, p.selectors)
}

// ExtractArticle parses an HTML document and pulls out the headline, the
// body paragraphs joined by blank lines and the publication date if present.
func ExtractArticle(r io.Reader, selectors Selectors) (Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Extracted{}, fmt.Errorf("parse document: %w", err)
	}
	selectors = selectors.withDefaults()

	headline := strings.TrimSpace(doc.Find(selectors.Headline).First().Text())
	if headline == "" {
		headline, _ = doc.Find(`meta[property="og:title"]`).First().Attr("content")
		headline = strings.TrimSpace(headline)
	}

	body := paragraphs(doc.Find(selectors.Body))
	if body == "" {
		body = paragraphs(doc.Find("p"))
	}

	if headline == "" || body == "" {
		return Extracted{}, ErrNoContent
	}

	return Extracted{
		Headline:    headline,
		Body:        body,
		PublishedAt: publishedAt(doc, selectors.Date),
	}, nil
}

func paragraphs(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func publishedAt(doc *goquery.Document, selector string) time.Time {
	el := doc.Find(selector).First()
	raw, ok := el.Attr("datetime")
	if !ok {
		raw = el.Text()
	}
	if strings.TrimSpace(raw) == "" {
		raw, _ = doc.Find(`meta[property="article:published_time"]`).First().Attr("content")
	}

	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (s Selectors) withDefaults() Selectors {
	if s.Headline == "" {
		s.Headline = DefaultSelectors.Headline
	}
	if s.Body == "" {
		s.Body = DefaultSelectors.Body
	}
	if s.Date == "" {
		s.Date = DefaultSelectors.Date
	}
	return s
}
