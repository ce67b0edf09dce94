package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/logger"
	"papertrade/internal/models"
	"papertrade/internal/pagination"
	"papertrade/internal/pricing"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogEntry struct {
	Symbol        string `yaml:"symbol"`
	Name          string `yaml:"name"`
	Price         string `yaml:"price"`
	ChangePercent string `yaml:"change_percent"`
}

type catalogFile struct {
	Stocks      []catalogEntry `yaml:"stocks"`
	ETFs        []catalogEntry `yaml:"etfs"`
	MutualFunds []catalogEntry `yaml:"mutual_funds"`
}

// loadCatalog parses the embedded seed catalog into instruments.
func loadCatalog() ([]models.Instrument, error) {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var out []models.Instrument
	groups := []struct {
		kind    models.InstrumentKind
		entries []catalogEntry
	}{
		{models.InstrumentKindStock, f.Stocks},
		{models.InstrumentKindETF, f.ETFs},
		{models.InstrumentKindMutualFund, f.MutualFunds},
	}
	for _, g := range groups {
		for _, e := range g.entries {
			price, err := decimal.NewFromString(e.Price)
			if err != nil {
				return nil, fmt.Errorf("catalog %s price: %w", e.Symbol, err)
			}
			change, err := decimal.NewFromString(e.ChangePercent)
			if err != nil {
				return nil, fmt.Errorf("catalog %s change: %w", e.Symbol, err)
			}
			out = append(out, models.Instrument{
				Symbol:        e.Symbol,
				Name:          e.Name,
				Kind:          g.kind,
				Price:         price,
				ChangePercent: change,
			})
		}
	}
	return out, nil
}

// instrumentService serves the mock instrument catalog.
type instrumentService struct {
	db    *gorm.DB
	cache pricing.Invalidator
}

// NewInstrumentService creates a new InstrumentServicer. cache may be nil when
// quotes are not cached.
func NewInstrumentService(db *gorm.DB, cache pricing.Invalidator) InstrumentServicer {
	return &instrumentService{db: db, cache: cache}
}

// ListInstruments returns a page of instruments of one kind ordered by symbol.
func (s *instrumentService) ListInstruments(ctx context.Context, kind models.InstrumentKind, page pagination.PageRequest) (*pagination.PageResponse[models.Instrument], error) {
	if !kind.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown instrument kind %q", kind))
	}
	page.Defaults()

	db := s.db.WithContext(ctx).Model(&models.Instrument{}).Where("kind = ?", kind)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.Instrument
	if err := db.Scopes(pagination.Paginate(page)).Order("symbol ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(items, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetInstrument returns one instrument. A non-empty kind must match.
func (s *instrumentService) GetInstrument(ctx context.Context, kind models.InstrumentKind, symbol string) (*models.Instrument, error) {
	sym, ok := models.NormalizeSymbol(symbol)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid symbol %q", symbol))
	}

	db := s.db.WithContext(ctx).Where("symbol = ?", sym)
	if kind != "" {
		db = db.Where("kind = ?", kind)
	}

	var inst models.Instrument
	if err := db.First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInstrumentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &inst, nil
}

// SeedInstruments upserts the embedded catalog, optionally limited to one
// kind, and returns how many rows were written. Existing rows are updated in
// place because holdings and watchlists refer to them by symbol.
func (s *instrumentService) SeedInstruments(ctx context.Context, kind models.InstrumentKind) (int, error) {
	if kind != "" && !kind.IsValid() {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown instrument kind %q", kind))
	}

	catalog, err := loadCatalog()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var seeded []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, inst := range catalog {
			if kind != "" && inst.Kind != kind {
				continue
			}
			var row models.Instrument
			err := tx.Where(models.Instrument{Symbol: inst.Symbol}).
				Assign(map[string]interface{}{
					"name":           inst.Name,
					"kind":           inst.Kind,
					"price":          inst.Price,
					"change_percent": inst.ChangePercent,
				}).
				FirstOrCreate(&row).Error
			if err != nil {
				return fmt.Errorf("seed %s: %w", inst.Symbol, err)
			}
			seeded = append(seeded, inst.Symbol)
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, sym := range seeded {
		s.invalidate(sym)
	}
	logger.Get().Infow("instrument catalog seeded", "kind", kind, "count", len(seeded))
	return len(seeded), nil
}

// UpdatePrice sets an instrument's last traded price and daily change.
func (s *instrumentService) UpdatePrice(ctx context.Context, symbol string, price, changePercent decimal.Decimal) (*models.Instrument, error) {
	if !price.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be positive")
	}
	inst, err := s.GetInstrument(ctx, "", symbol)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(inst).Updates(map[string]interface{}{
		"price":          price,
		"change_percent": changePercent,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	inst.Price = price
	inst.ChangePercent = changePercent

	s.invalidate(inst.Symbol)
	return inst, nil
}

func (s *instrumentService) invalidate(symbol string) {
	if s.cache != nil {
		s.cache.Invalidate(symbol)
	}
}
