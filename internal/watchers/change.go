package watchers

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the materiality threshold for price notifications (5%)
var DefaultThreshold = decimal.NewFromFloat(0.05)

// Direction of a material price move
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Label returns the marker used in notifications
func (d Direction) Label() string {
	if d == DirectionUp {
		return "🟢"
	}
	return "🔴"
}

// PriceChange is a triggered move of one symbol between two cycles
type PriceChange struct {
	Symbol    string
	Old       decimal.Decimal
	New       decimal.Decimal
	Change    decimal.Decimal
	Direction Direction
}

// Percent returns the relative change as a percentage
func (c PriceChange) Percent() decimal.Decimal {
	return c.Change.Mul(decimal.NewFromInt(100))
}

// DetectChange compares old and new prices for symbol.
// Reports true when |(new-old)/old| >= threshold. A move at exactly the
// threshold is classified by its sign, never as unchanged.
func DetectChange(symbol string, old, new, threshold decimal.Decimal) (PriceChange, bool) {
	if !old.IsPositive() {
		return PriceChange{}, false
	}

	change := new.Sub(old).Div(old)
	if change.IsZero() || change.Abs().LessThan(threshold) {
		return PriceChange{}, false
	}

	direction := DirectionUp
	if change.IsNegative() {
		direction = DirectionDown
	}

	return PriceChange{
		Symbol:    symbol,
		Old:       old,
		New:       new,
		Change:    change,
		Direction: direction,
	}, true
}

// usablePrice rejects values the provider should never have returned
func usablePrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0
}
