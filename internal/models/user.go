package models

import (
	"strconv"
	"strings"
	"time"
)

// UserID is the stable chat identifier of a user. Never reused across accounts.
type UserID int64

// String returns the decimal form used in logs and storage keys
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses the decimal form produced by String
func ParseUserID(s string) (UserID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(v), nil
}

// Asset is a single portfolio position
type Asset struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

// User is the persisted record of a registered user
type User struct {
	ID           UserID    `json:"id" badgerhold:"key"`
	Username     string    `json:"username"`
	Timezone     string    `json:"timezone"`    // IANA name, e.g. "Europe/Moscow"
	NewsWindow   string    `json:"news_window"` // period string, e.g. "3 hours"
	Assets       []Asset   `json:"assets"`
	Active       bool      `json:"active" badgerhold:"index"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Symbols returns the distinct symbols held, in portfolio order
func (u *User) Symbols() []string {
	seen := make(map[string]struct{}, len(u.Assets))
	symbols := make([]string, 0, len(u.Assets))
	for _, a := range u.Assets {
		if _, ok := seen[a.Symbol]; ok {
			continue
		}
		seen[a.Symbol] = struct{}{}
		symbols = append(symbols, a.Symbol)
	}
	return symbols
}
