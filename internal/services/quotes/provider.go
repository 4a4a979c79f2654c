// Package quotes resolves portfolio symbols to current prices.
package quotes

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ipsa/internal/common"
	"github.com/ternarybob/ipsa/internal/eodhd"
	"github.com/ternarybob/ipsa/internal/interfaces"
)

// EODHDProvider implements interfaces.QuoteProvider with EODHD real-time quotes
type EODHDProvider struct {
	client   *eodhd.Client
	exchange string
	logger   arbor.ILogger
}

var _ interfaces.QuoteProvider = (*EODHDProvider)(nil)

// NewEODHDProvider creates a provider. Symbols without an exchange resolve to exchange.
func NewEODHDProvider(client *eodhd.Client, exchange string, logger arbor.ILogger) *EODHDProvider {
	return &EODHDProvider{
		client:   client,
		exchange: exchange,
		logger:   logger,
	}
}

// GetPrice returns the latest close for symbol.
// A missing or "NA" close is reported as ErrDataFormat.
func (p *EODHDProvider) GetPrice(ctx context.Context, symbol string) (float64, error) {
	ticker := common.ParseTicker(symbol, p.exchange)
	if ticker.Code == "" {
		return 0, fmt.Errorf("%w: empty symbol", interfaces.ErrDataFormat)
	}

	quote, err := p.client.GetRealTimeQuote(ctx, ticker.EODHDSymbol())
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", ticker.EODHDSymbol(), err)
	}

	if !quote.Close.Valid || quote.Close.Value <= 0 {
		return 0, fmt.Errorf("%w: no close price for %s", interfaces.ErrDataFormat, ticker.EODHDSymbol())
	}

	p.logger.Debug().
		Str("symbol", ticker.EODHDSymbol()).
		Float64("price", quote.Close.Value).
		Msg("Fetched quote")

	return quote.Close.Value, nil
}
