package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
)

// watchlistService manages each user's followed symbols.
type watchlistService struct {
	db *gorm.DB
}

// NewWatchlistService creates a new WatchlistServicer.
func NewWatchlistService(db *gorm.DB) WatchlistServicer {
	return &watchlistService{db: db}
}

// GetWatchlist returns the user's symbols in alphabetical order.
func (s *watchlistService) GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return s.list(s.db.WithContext(ctx), userID)
}

// AddSymbol follows symbol. Adding a symbol already on the list is a no-op.
func (s *watchlistService) AddSymbol(ctx context.Context, userID, symbol string) ([]models.WatchlistItem, error) {
	sym, err := watchSymbol(symbol)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var inst models.Instrument
	if err := db.Select("symbol").Where("symbol = ?", sym).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrInstrumentNotFound, fmt.Sprintf("Instrument %s not found", sym))
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	item := &models.WatchlistItem{UserID: userID, Symbol: sym}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.list(db, userID)
}

// RemoveSymbol unfollows symbol. Removing a symbol not on the list is a no-op.
func (s *watchlistService) RemoveSymbol(ctx context.Context, userID, symbol string) ([]models.WatchlistItem, error) {
	sym, err := watchSymbol(symbol)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	if err := db.Where("user_id = ? AND symbol = ?", userID, sym).Delete(&models.WatchlistItem{}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.list(db, userID)
}

func (s *watchlistService) list(db *gorm.DB, userID string) ([]models.WatchlistItem, error) {
	items := []models.WatchlistItem{}
	if err := db.Where("user_id = ?", userID).Order("symbol ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

func watchSymbol(symbol string) (string, error) {
	sym, ok := models.NormalizeSymbol(symbol)
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid symbol %q", symbol))
	}
	return sym, nil
}
