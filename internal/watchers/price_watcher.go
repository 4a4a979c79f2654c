package watchers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
	"github.com/ternarybob/ipsa/internal/retry"
)

// Defaults applied when PriceConfig leaves timing unset
const (
	DefaultPriceInterval   = 30 * time.Second
	DefaultPriceMaxBackoff = 10 * time.Minute
)

// PriceConfig holds PriceWatcher timing and threshold settings
type PriceConfig struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Threshold  decimal.Decimal
}

// observation is one snapshot entry; known is false when the fetch failed
type observation struct {
	price decimal.Decimal
	known bool
}

// PriceWatcher polls quotes for one user's portfolio and notifies on material moves.
// The snapshot is owned by the Run goroutine.
type PriceWatcher struct {
	user      models.UserID
	portfolio interfaces.PortfolioProvider
	quotes    interfaces.QuoteProvider
	sink      interfaces.NotificationSink
	policy    *retry.Policy
	config    PriceConfig
	logger    arbor.ILogger

	state    stateCell
	snapshot map[string]observation
}

// NewPriceWatcher creates a PriceWatcher for user
func NewPriceWatcher(
	user models.UserID,
	portfolio interfaces.PortfolioProvider,
	quotes interfaces.QuoteProvider,
	sink interfaces.NotificationSink,
	policy *retry.Policy,
	config PriceConfig,
	logger arbor.ILogger,
) *PriceWatcher {
	if config.Threshold.IsZero() {
		config.Threshold = DefaultThreshold
	}
	if config.Interval <= 0 {
		config.Interval = DefaultPriceInterval
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = DefaultPriceMaxBackoff
	}
	return &PriceWatcher{
		user:      user,
		portfolio: portfolio,
		quotes:    quotes,
		sink:      sink,
		policy:    policy,
		config:    config,
		logger:    logger,
		snapshot:  make(map[string]observation),
	}
}

// State returns the current loop state
func (w *PriceWatcher) State() State {
	return w.state.get()
}

// Run polls until ctx is cancelled
func (w *PriceWatcher) Run(ctx context.Context) {
	l := newLoop(string(KindPrice), w.config.Interval, w.config.MaxBackoff, &w.state, w.logger)
	l.run(ctx, w.cycle)
}

// cycle runs Fetching, Comparing and Notifying once.
// It fails only when the portfolio lookup fails or no quote could be fetched.
func (w *PriceWatcher) cycle(ctx context.Context) error {
	w.state.set(StateFetching)

	symbols, err := retry.Do(ctx, w.policy, "portfolio", func(ctx context.Context) ([]string, error) {
		return w.portfolio.GetSymbols(ctx, w.user)
	})
	if err != nil {
		return fmt.Errorf("portfolio lookup failed: %w", err)
	}

	current, failed := w.fetch(ctx, symbols)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	w.state.set(StateComparing)
	changes := w.compare(current)

	if len(changes) > 0 {
		w.state.set(StateNotifying)
		w.notify(ctx, changes)
	}

	// Symbols dropped from the portfolio leave the snapshot here
	w.snapshot = current

	if len(current) > 0 && failed == len(current) {
		return fmt.Errorf("%w: no quote available for any of %d symbols", interfaces.ErrTransientFetch, failed)
	}

	w.logger.Debug().
		Int("symbols", len(current)).
		Int("unknown", failed).
		Int("triggered", len(changes)).
		Msg("Price cycle complete")

	return nil
}

func (w *PriceWatcher) fetch(ctx context.Context, symbols []string) (map[string]observation, int) {
	current := make(map[string]observation, len(symbols))
	failed := 0

	for _, symbol := range symbols {
		if _, dup := current[symbol]; dup {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		price, err := retry.Do(ctx, w.policy, "quote", func(ctx context.Context) (float64, error) {
			return w.quotes.GetPrice(ctx, symbol)
		})
		if err == nil && !usablePrice(price) {
			err = fmt.Errorf("%w: unusable price %v", interfaces.ErrDataFormat, price)
		}
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn().Str("symbol", symbol).Err(err).Msg("Quote unavailable, marking unknown")
			}
			current[symbol] = observation{}
			failed++
			continue
		}

		current[symbol] = observation{price: decimal.NewFromFloat(price), known: true}
	}

	return current, failed
}

// compare returns the triggered changes for symbols known in both cycles
func (w *PriceWatcher) compare(current map[string]observation) []PriceChange {
	var changes []PriceChange
	for symbol, now := range current {
		before, ok := w.snapshot[symbol]
		if !ok || !before.known || !now.known {
			continue
		}
		if c, triggered := DetectChange(symbol, before.price, now.price, w.config.Threshold); triggered {
			changes = append(changes, c)
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Symbol < changes[j].Symbol })
	return changes
}

func (w *PriceWatcher) notify(ctx context.Context, changes []PriceChange) {
	for _, c := range changes {
		if ctx.Err() != nil {
			return
		}

		if err := w.sink.Deliver(ctx, w.user, FormatPriceChange(c)); err != nil {
			w.logger.Warn().
				Str("symbol", c.Symbol).
				Err(fmt.Errorf("%w: %w", interfaces.ErrDelivery, err)).
				Msg("Failed to deliver price notification")
			continue
		}

		w.logger.Info().
			Str("symbol", c.Symbol).
			Str("direction", string(c.Direction)).
			Str("old", c.Old.String()).
			Str("new", c.New.String()).
			Msg("Price notification delivered")
	}
}
