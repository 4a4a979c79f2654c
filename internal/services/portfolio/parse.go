// Package portfolio parses and applies user portfolio edits.
package portfolio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/ipsa/internal/interfaces"
	"github.com/ternarybob/ipsa/internal/models"
)

var (
	// ErrInvalidAssetFormat is returned for entries not shaped "SYMBOL, QUANTITY"
	ErrInvalidAssetFormat = errors.New("invalid asset format")
	// ErrInvalidQuantity is returned for non-integer or non-positive quantities
	ErrInvalidQuantity = errors.New("invalid asset quantity")
)

// ParseAssets parses "AAPL, 10 | MSFT, 5" into assets.
// Entries are separated by '|', symbol and quantity by ','.
// Symbols are upper-cased; repeated symbols are summed.
func ParseAssets(input string) ([]models.Asset, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: %w: empty input", interfaces.ErrDataFormat, ErrInvalidAssetFormat)
	}

	var assets []models.Asset
	index := make(map[string]int)

	for i, entry := range strings.Split(input, "|") {
		parts := strings.Split(entry, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %w: entry %d %q", interfaces.ErrDataFormat, ErrInvalidAssetFormat, i+1, strings.TrimSpace(entry))
		}

		symbol := strings.ToUpper(strings.TrimSpace(parts[0]))
		if symbol == "" || strings.ContainsAny(symbol, " \t") {
			return nil, fmt.Errorf("%w: %w: entry %d has bad symbol %q", interfaces.ErrDataFormat, ErrInvalidAssetFormat, i+1, symbol)
		}

		qtyText := strings.TrimSpace(parts[1])
		qty, err := strconv.ParseInt(qtyText, 10, 64)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("%w: %w: %s has quantity %q", interfaces.ErrDataFormat, ErrInvalidQuantity, symbol, qtyText)
		}

		if at, ok := index[symbol]; ok {
			assets[at].Quantity += qty
			continue
		}
		index[symbol] = len(assets)
		assets = append(assets, models.Asset{Symbol: symbol, Quantity: qty})
	}

	return assets, nil
}

// FormatAssets renders assets one per line as "SYMBOL: QUANTITY"
func FormatAssets(assets []models.Asset) string {
	if len(assets) == 0 {
		return "Portfolio is empty"
	}
	var sb strings.Builder
	for i, a := range assets {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %d", a.Symbol, a.Quantity)
	}
	return sb.String()
}
