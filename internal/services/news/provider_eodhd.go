package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/common"
	"github.com/ternarybob/ipsa/internal/eodhd"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

// EODHDScheme prefixes news sources served by the EODHD news API,
// e.g. "eodhd:AAPL,MSFT.US"
const EODHDScheme = "eodhd:"

// EODHDProvider serves ticker news from the EODHD API.
type EODHDProvider struct {
	client   *eodhd.Client
	exchange string
	limit    int
	logger   arbor.ILogger
}

// NewEODHDProvider creates an EODHDProvider. Bare tickers resolve to exchange.
func NewEODHDProvider(logger arbor.ILogger, client *eodhd.Client, exchange string) *EODHDProvider {
	return &EODHDProvider{
		client:   client,
		exchange: exchange,
		limit:    50,
		logger:   logger,
	}
}

// Name returns the provider name.
func (p *EODHDProvider) Name() string {
	return "eodhd"
}

// Supports returns true for eodhd: sources.
func (p *EODHDProvider) Supports(source string) bool {
	return strings.HasPrefix(source, EODHDScheme)
}

// FetchArticles retrieves the latest news for the tickers named in source.
func (p *EODHDProvider) FetchArticles(ctx context.Context, source string) ([]models.Article, error) {
	var symbols []string
	for _, raw := range strings.Split(strings.TrimPrefix(source, EODHDScheme), ",") {
		if symbol := common.ParseTicker(raw, p.exchange).EODHDSymbol(); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no tickers in news source %q", interfaces.ErrConfiguration, source)
	}

	items, err := p.client.GetNews(ctx, symbols, eodhd.WithLimit(p.limit))
	if err != nil {
		return nil, err
	}

	articles := make([]models.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, models.Article{
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.Link),
			Summary:     summarize(item.Content, 280),
			Provider:    "EODHD",
			Source:      source,
			PublishedAt: item.Date,
		})
	}
	return articles, nil
}

// summarize truncates content to max runes on a word boundary
func summarize(content string, max int) string {
	content = collapse(content)
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
