package models

// WatchlistItem is a symbol a user follows without holding it.
type WatchlistItem struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_watchlist_user_symbol" json:"user_id"`
	Symbol string `gorm:"size:20;not null;uniqueIndex:idx_watchlist_user_symbol" json:"symbol"`
}
