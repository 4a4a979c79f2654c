package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/eodhd"
	"github.com/ternarybob/ipsa/internal/interfaces"
)

func TestService_RoutesBySource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/news":
			assert.Equal(t, "AAPL.US,GAZP.MCX", r.URL.Query().Get("s"))
			w.Write([]byte(`[{"date":"2024-06-01T10:30:00+00:00","title":"Apple rallies","content":"Shares up","link":"https://example.com/a"}]`))
		default:
			w.Write([]byte(listingPage))
		}
	}))
	defer server.Close()

	logger := arbor.NewLogger()
	client := eodhd.NewClient("demo", eodhd.WithBaseURL(server.URL+"/api"), eodhd.WithRateLimit(0))
	service := NewService(logger,
		NewEODHDProvider(logger, client, "US"),
		NewInvestingProvider(logger, server.Client(), "", 0),
	)

	ticker, err := service.FetchArticles(context.Background(), "eodhd:AAPL, MOEX:GAZP")
	require.NoError(t, err)
	require.Len(t, ticker, 1)
	assert.Equal(t, "Apple rallies", ticker[0].Title)
	assert.Equal(t, "EODHD", ticker[0].Provider)
	assert.Equal(t, 10, ticker[0].PublishedAt.Hour())

	scraped, err := service.FetchArticles(context.Background(), server.URL+"/news/")
	require.NoError(t, err)
	assert.Len(t, scraped, 2)
}

func TestService_UnsupportedSource(t *testing.T) {
	service := NewService(arbor.NewLogger(), NewInvestingProvider(arbor.NewLogger(), nil, "", 0))

	_, err := service.FetchArticles(context.Background(), "ftp://example.com/news")
	assert.ErrorIs(t, err, interfaces.ErrConfiguration)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "short text", summarize("  short \n text ", 50))
	assert.Equal(t, "alpha beta…", summarize("alpha beta gamma delta", 12))
}
