package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/interfaces"
)

const listingPage = `<html><body><ul>
<li><article data-test="article-item">
  <a data-test="article-title-link" href="/news/commodities-news/oil-climbs-123">
    Oil   climbs on supply fears
  </a>
  <p data-test="article-description">Brent crude rose 2% on Monday.</p>
  <span data-test="news-provider-name">Reuters</span>
  <time data-test="article-publish-date" datetime="2024-06-01 10:30:00">2 hours ago</time>
</article></li>
<li><article data-test="article-item">
  <a data-test="article-title-link" href="https://www.investing.com/news/economy/rates-456">Rates steady</a>
  <time data-test="article-publish-date" datetime="yesterday">yesterday</time>
</article></li>
<li><div class="ad">not an article</div></li>
</ul></body></html>`

func TestInvestingProvider_FetchArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ipsa-test", r.Header.Get("User-Agent"))
		w.Write([]byte(listingPage))
	}))
	defer server.Close()

	p := NewInvestingProvider(arbor.NewLogger(), server.Client(), "ipsa-test", 0)
	source := server.URL + "/news/"

	articles, err := p.FetchArticles(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	oil := articles[0]
	assert.Equal(t, "Oil climbs on supply fears", oil.Title)
	assert.Equal(t, server.URL+"/news/commodities-news/oil-climbs-123", oil.URL)
	assert.Equal(t, "Brent crude rose 2% on Monday.", oil.Summary)
	assert.Equal(t, "Reuters", oil.Provider)
	assert.Equal(t, source, oil.Source)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC), oil.PublishedAt)

	rates := articles[1]
	assert.Equal(t, "https://www.investing.com/news/economy/rates-456", rates.URL)
	assert.True(t, rates.PublishedAt.IsZero(), "unparsable time left for the watcher to reject")
}

func TestInvestingProvider_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusServiceUnavailable, interfaces.ErrTransientFetch},
		{http.StatusForbidden, interfaces.ErrTransientFetch},
		{http.StatusTooManyRequests, interfaces.ErrTransientFetch},
		{http.StatusNotFound, interfaces.ErrDataFormat},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			p := NewInvestingProvider(arbor.NewLogger(), server.Client(), "", 0)
			_, err := p.FetchArticles(context.Background(), server.URL)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInvestingProvider_Supports(t *testing.T) {
	p := NewInvestingProvider(arbor.NewLogger(), nil, "", time.Second)
	assert.True(t, p.Supports("https://www.investing.com/news/"))
	assert.True(t, p.Supports("http://localhost:8080/news"))
	assert.False(t, p.Supports("eodhd:AAPL"))
}
