package watchers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/retry"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakePortfolio struct {
	mu      sync.Mutex
	symbols []string
	err     error
}

func (f *fakePortfolio) GetSymbols(ctx context.Context, user models.UserID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.symbols...), nil
}

func (f *fakePortfolio) set(symbols ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols = symbols
}

type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	calls  int
}

func newFakeQuotes(prices map[string]float64) *fakeQuotes {
	return &fakeQuotes{prices: prices}
}

func (f *fakeQuotes) GetPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.prices[symbol]
	if !ok {
		return 0, interfaces.ErrTransientFetch
	}
	return p, nil
}

func (f *fakeQuotes) set(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

func (f *fakeQuotes) drop(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.prices, symbol)
}

type fakeSink struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeSink) Deliver(ctx context.Context, user models.UserID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeSink) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeNews struct {
	mu      sync.Mutex
	sources map[string][]models.Article
	failing map[string]bool
}

func newFakeNews() *fakeNews {
	return &fakeNews{sources: map[string][]models.Article{}, failing: map[string]bool{}}
}

func (f *fakeNews) FetchArticles(ctx context.Context, source string) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[source] {
		return nil, interfaces.ErrTransientFetch
	}
	return append([]models.Article(nil), f.sources[source]...), nil
}

type fakeSettings struct {
	mu       sync.Mutex
	timezone string
	window   string
}

func (f *fakeSettings) GetTimezone(ctx context.Context, user models.UserID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timezone, nil
}

func (f *fakeSettings) GetNewsWindow(ctx context.Context, user models.UserID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.window, nil
}

func (f *fakeSettings) setWindow(window string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window = window
}

type fakeAnnotator struct {
	text string
	err  error
}

func (f fakeAnnotator) Annotate(ctx context.Context, a models.Article) (string, error) {
	return f.text, f.err
}

var errBoom = errors.New("boom")

func testPolicy() *retry.Policy {
	return retry.NewPolicy(retry.Config{
		MaxAttempts:    1,
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
		AttemptTimeout: time.Second,
	}, arbor.NewLogger())
}
