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

	"github.com/ternarybob/ipsa/internal/eodhd"
	"github.com/ternarybob/ipsa/internal/interfaces"
)

func TestEODHDProvider_FetchArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/news", r.URL.Path)
		assert.Equal(t, "AAPL.US,MSFT.US", r.URL.Query().Get("s"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"date":"2024-06-01T10:30:00+00:00","title":" Apple beats ","content":"Revenue   grew\nstrongly.","link":"https://example.com/a","symbols":["AAPL.US"]}]`))
	}))
	defer server.Close()

	logger := arbor.NewLogger()
	client := eodhd.NewClient("demo", eodhd.WithBaseURL(server.URL), eodhd.WithRateLimit(0), eodhd.WithLogger(logger))
	provider := NewEODHDProvider(logger, client, "US")

	require.True(t, provider.Supports("eodhd:AAPL,MSFT.US"))
	assert.False(t, provider.Supports("https://www.investing.com/news/"))

	articles, err := provider.FetchArticles(context.Background(), "eodhd:AAPL, MSFT.US")
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, "Apple beats", a.Title)
	assert.Equal(t, "https://example.com/a", a.URL)
	assert.Equal(t, "Revenue grew strongly.", a.Summary)
	assert.Equal(t, "EODHD", a.Provider)
	assert.True(t, a.PublishedAt.Equal(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)))
}

func TestEODHDProvider_NoTickers(t *testing.T) {
	logger := arbor.NewLogger()
	provider := NewEODHDProvider(logger, eodhd.NewClient("demo", eodhd.WithLogger(logger)), "US")

	_, err := provider.FetchArticles(context.Background(), "eodhd: , ")
	assert.ErrorIs(t, err, interfaces.ErrConfiguration)
}
