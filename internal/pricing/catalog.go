package pricing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"papertrade/internal/models"
)

// CatalogSource reads prices from the instruments table.
type CatalogSource struct {
	db *gorm.DB
}

// NewCatalogSource creates a CatalogSource over db.
func NewCatalogSource(db *gorm.DB) *CatalogSource {
	return &CatalogSource{db: db}
}

// Quote implements Source.
func (s *CatalogSource) Quote(ctx context.Context, symbol string) (Quote, error) {
	var inst models.Instrument
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Quote{}, ctxErr
		}
		return Quote{}, fmt.Errorf("pricing: lookup %s: %w", symbol, err)
	}
	return Quote{Symbol: inst.Symbol, Price: inst.Price, ChangePercent: inst.ChangePercent}, nil
}

var _ Source = (*CatalogSource)(nil)
