package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

// investing.com publishes article times in UTC with this layout
const investingTimeLayout = "2006-01-02 15:04:05"

// InvestingProvider scrapes investing.com news listing pages.
// Any http(s) source is accepted; pages must follow the investing.com markup.
type InvestingProvider struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// NewInvestingProvider creates an InvestingProvider. minDelay spaces page fetches
// across every watcher sharing the provider.
func NewInvestingProvider(logger arbor.ILogger, httpClient *http.Client, userAgent string, minDelay time.Duration) *InvestingProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &InvestingProvider{
		httpClient: httpClient,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// Name returns the provider name.
func (p *InvestingProvider) Name() string {
	return "investing"
}

// Supports returns true for http and https URLs.
func (p *InvestingProvider) Supports(source string) bool {
	return strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://")
}

// FetchArticles downloads source and extracts its article list.
func (p *InvestingProvider) FetchArticles(ctx context.Context, source string) ([]models.Article, error) {
	base, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid source url %q: %w", interfaces.ErrConfiguration, source, err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: failed to fetch %s: %w", interfaces.ErrTransientFetch, source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: unexpected status code %d from %s", interfaces.ErrTransientFetch, resp.StatusCode, source)
	default:
		return nil, fmt.Errorf("%w: unexpected status code %d from %s", interfaces.ErrDataFormat, resp.StatusCode, source)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", interfaces.ErrDataFormat, source, err)
	}

	articles := parseArticles(doc, base)

	p.logger.Debug().
		Str("source", source).
		Int("articles", len(articles)).
		Msg("Scraped investing.com page")

	return articles, nil
}

// parseArticles extracts every article item. Items with missing fields are
// returned as-is; the watcher rejects them.
func parseArticles(doc *goquery.Document, base *url.URL) []models.Article {
	var articles []models.Article

	doc.Find(`article[data-test="article-item"]`).Each(func(i int, s *goquery.Selection) {
		link := s.Find(`a[data-test="article-title-link"]`).First()
		href, _ := link.Attr("href")

		a := models.Article{
			Title:    collapse(link.Text()),
			URL:      resolve(base, href),
			Summary:  collapse(s.Find(`p[data-test="article-description"]`).First().Text()),
			Provider: collapse(s.Find(`span[data-test="news-provider-name"]`).First().Text()),
			Source:   base.String(),
		}

		if stamp, ok := s.Find(`time[data-test="article-publish-date"]`).First().Attr("datetime"); ok {
			if t, err := time.ParseInLocation(investingTimeLayout, strings.TrimSpace(stamp), time.UTC); err == nil {
				a.PublishedAt = t
			}
		}

		articles = append(articles, a)
	})

	return articles
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
