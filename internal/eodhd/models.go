package eodhd

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Number is a numeric API field that EODHD reports as "NA" when unavailable
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "NA") {
			*n = Number{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = Number{}
			return nil
		}
		*n = Number{Value: v, Valid: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// RealTimeQuote is the /real-time response for one symbol
type RealTimeQuote struct {
	Code          string `json:"code"`
	Timestamp     int64  `json:"timestamp"`
	GMTOffset     int    `json:"gmtoffset"`
	Open          Number `json:"open"`
	High          Number `json:"high"`
	Low           Number `json:"low"`
	Close         Number `json:"close"`
	Volume        Number `json:"volume"`
	PreviousClose Number `json:"previousClose"`
	Change        Number `json:"change"`
	ChangeP       Number `json:"change_p"`
}

// Time returns the quote timestamp in UTC
func (q RealTimeQuote) Time() time.Time {
	if q.Timestamp <= 0 {
		return time.Time{}
	}
	return time.Unix(q.Timestamp, 0).UTC()
}

// NewsItem represents a single news article.
type NewsItem struct {
	Date      time.Time      `json:"-"`
	DateStr   string         `json:"date"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Link      string         `json:"link"`
	Symbols   []string       `json:"symbols"`
	Tags      []string       `json:"tags"`
	Sentiment *NewsSentiment `json:"sentiment,omitempty"`
}

// NewsSentiment represents sentiment analysis data for news.
type NewsSentiment struct {
	Polarity float64 `json:"polarity"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
}

// NewsResponse is a slice of NewsItem.
type NewsResponse []NewsItem
