// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Ticker is a portfolio symbol resolved to an exchange.
// Users type "AAPL", "NASDAQ:AAPL" or the EODHD form "AAPL.US".
type Ticker struct {
	Exchange string // EODHD exchange suffix without the dot (e.g. "US")
	Code     string
	Raw      string
}

// ExchangeToSuffix maps exchange names to EODHD suffixes
var ExchangeToSuffix = map[string]string{
	"NYSE":   "US",
	"NASDAQ": "US",
	"AMEX":   "US",
	"US":     "US",
	"MOEX":   "MCX",
	"MCX":    "MCX",
	"LSE":    "LSE",
	"XETRA":  "XETRA",
	"TSX":    "TO",
	"ASX":    "AU",
	"HKEX":   "HK",
	"CRYPTO": "CC",
	"FOREX":  "FOREX",
}

// knownSuffixes are EODHD exchange codes accepted in CODE.EXCHANGE form
var knownSuffixes = map[string]bool{
	"US": true, "MCX": true, "LSE": true, "XETRA": true, "TO": true, "AU": true,
	"HK": true, "CC": true, "FOREX": true, "INDX": true, "PA": true, "SG": true,
}

// ParseTicker resolves symbol, using defaultExchange when none is given.
//   - "NASDAQ:AAPL" -> Exchange="US", Code="AAPL"
//   - "aapl.us"     -> Exchange="US", Code="AAPL"
//   - "BRK.B"       -> Exchange=defaultExchange, Code="BRK.B"
//   - "AAPL"        -> Exchange=defaultExchange, Code="AAPL"
func ParseTicker(symbol, defaultExchange string) Ticker {
	raw := symbol
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Ticker{}
	}
	defaultExchange = strings.ToUpper(strings.TrimSpace(defaultExchange))
	if defaultExchange == "" {
		defaultExchange = "US"
	}

	if idx := strings.Index(symbol, ":"); idx > 0 {
		exchange := symbol[:idx]
		if suffix, ok := ExchangeToSuffix[exchange]; ok {
			exchange = suffix
		}
		return Ticker{Exchange: exchange, Code: symbol[idx+1:], Raw: raw}
	}

	// CODE.EXCHANGE only when the suffix is a known exchange, so class
	// shares like BRK.B keep their dot
	if idx := strings.LastIndex(symbol, "."); idx > 0 && idx < len(symbol)-1 {
		if knownSuffixes[symbol[idx+1:]] {
			return Ticker{Exchange: symbol[idx+1:], Code: symbol[:idx], Raw: raw}
		}
	}

	if suffix, ok := ExchangeToSuffix[defaultExchange]; ok {
		defaultExchange = suffix
	}
	return Ticker{Exchange: defaultExchange, Code: symbol, Raw: raw}
}

// EODHDSymbol returns the CODE.EXCHANGE form used by the EODHD API
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	return t.Code + "." + t.Exchange
}

// String returns the EXCHANGE:CODE form
func (t Ticker) String() string {
	if t.Code == "" {
		return ""
	}
	return t.Exchange + ":" + t.Code
}
