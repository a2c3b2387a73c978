package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyike/EquityGo/config"
	"github.com/dyike/EquityGo/internal/models"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// maxArticleChars bounds scraped text so one long page cannot crowd the
// model context.
const maxArticleChars = 4000

// ArticleScraper extracts readable text from news article pages. It backs
// up the search tool: when the search API returns a hit without raw page
// content, the scraper fills it in.
type ArticleScraper struct {
	client *resty.Client
	cache  *CacheManager
}

// NewArticleScraper creates a new article scraper.
func NewArticleScraper(cfg *config.Config) *ArticleScraper {
	cacheDir := filepath.Join(cfg.DataCacheDir, "articles")
	cache := NewCacheManager(cacheDir, 2*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; EquityGo/1.0)")

	return &ArticleScraper{
		client: client,
		cache:  cache,
	}
}

// ScrapedArticle is the extracted content of one news page.
type ScrapedArticle struct {
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// ExtractArticle fetches a page and pulls out its article content.
func (s *ArticleScraper) ExtractArticle(ctx context.Context, articleURL string) (*ScrapedArticle, error) {
	if strings.TrimSpace(articleURL) == "" {
		return nil, fmt.Errorf("article URL cannot be empty")
	}

	var cached ScrapedArticle
	if s.cache.Get("article", "content", articleURL, &cached) {
		return &cached, nil
	}

	resp, err := s.client.R().SetContext(ctx).Get(articleURL)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP error %d when fetching article", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse article HTML: %w", err)
	}

	article := s.extractContent(doc, articleURL)
	if article.Text == "" {
		return nil, fmt.Errorf("no article text found at %s", articleURL)
	}

	s.cache.Set("article", "content", articleURL, article)
	return article, nil
}

// extractContent walks a selector cascade; news sites disagree on markup
// so the first non-empty match wins.
func (s *ArticleScraper) extractContent(doc *goquery.Document, articleURL string) *ScrapedArticle {
	doc.Find("script, style, nav, footer").Remove()

	title := ""
	for _, selector := range []string{"h1", "title", ".headline", ".article-title", ".entry-title"} {
		if t := strings.TrimSpace(doc.Find(selector).First().Text()); t != "" {
			title = t
			break
		}
	}

	text := ""
	contentSelectors := []string{
		".article-content", ".entry-content", ".post-content",
		".content", "article p", ".article-body", ".story-body",
	}
	for _, selector := range contentSelectors {
		if c := strings.TrimSpace(doc.Find(selector).Text()); c != "" {
			text = c
			break
		}
	}
	text = collapseWhitespace(text)
	if runes := []rune(text); len(runes) > maxArticleChars {
		text = string(runes[:maxArticleChars])
	}

	source := ""
	if meta := doc.Find("meta[property='og:site_name']"); meta.Length() > 0 {
		source, _ = meta.Attr("content")
	}
	if source == "" {
		if u, err := url.Parse(articleURL); err == nil {
			source = u.Host
		}
	}

	var publishedAt time.Time
	if meta := doc.Find("meta[property='article:published_time']"); meta.Length() > 0 {
		if dateStr, exists := meta.Attr("content"); exists {
			if t, err := ParseDateString(dateStr); err == nil {
				publishedAt = t
			}
		}
	}

	return &ScrapedArticle{
		Title:       title,
		Text:        text,
		Source:      source,
		URL:         articleURL,
		PublishedAt: publishedAt,
	}
}

// Backfill scrapes the page for every search result missing raw content
// and fills it in place. Scrape failures leave the result untouched; the
// search snippet is still usable on its own.
func (s *ArticleScraper) Backfill(ctx context.Context, results []models.SearchResult) {
	g := new(errgroup.Group)
	g.SetLimit(3)

	for i := range results {
		if results[i].RawContent != "" || results[i].URL == "" {
			continue
		}
		i := i
		g.Go(func() error {
			article, err := s.ExtractArticle(ctx, results[i].URL)
			if err != nil {
				return nil // keep the snippet only
			}
			results[i].RawContent = article.Text
			return nil
		})
	}

	_ = g.Wait() // scrapes degrade internally and never error
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
