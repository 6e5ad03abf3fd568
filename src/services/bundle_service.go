package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/username/bundlefolio/backend/src/bundlecalc"
	"github.com/username/bundlefolio/backend/src/logger"
	"github.com/username/bundlefolio/backend/src/model"
	"github.com/username/bundlefolio/backend/src/models"
	"github.com/username/bundlefolio/backend/src/security/validation"
	"github.com/username/bundlefolio/backend/src/utils"
)

// Allocation percentages are user-entered decimals; anything within this
// tolerance of 100 counts as exact.
const percentTolerance = 1e-9

type bundleServiceImpl struct {
	db         *sql.DB
	market     MarketDataService
	maxBundles int
}

func NewBundleService(db *sql.DB, market MarketDataService, maxBundles int) BundleService {
	return &bundleServiceImpl{
		db:         db,
		market:     market,
		maxBundles: maxBundles,
	}
}

// ValidateAllocations enforces the structural rules every bundle must meet
// before it can be saved or summarized: at least one security, no duplicate
// symbols, every weight strictly positive, and the weights totalling exactly
// one hundred percent.
func (s *bundleServiceImpl) ValidateAllocations(securities []models.StoredSecurity) error {
	if len(securities) == 0 {
		return ErrEmptyBundle
	}
	seen := make(map[string]bool, len(securities))
	var total float64
	for _, sec := range securities {
		symbol := strings.ToUpper(strings.TrimSpace(sec.Symbol))
		if err := validation.ValidateSymbol(symbol); err != nil {
			return err
		}
		if seen[symbol] {
			return fmt.Errorf("%w: %s", ErrDuplicateSymbol, symbol)
		}
		seen[symbol] = true
		if sec.Percent <= 0 {
			return fmt.Errorf("%w: %s", ErrZeroPercentStock, symbol)
		}
		total += sec.Percent
	}
	if math.Abs(total-100) > percentTolerance {
		return fmt.Errorf("%w: got %.2f", ErrAllocationNot100, total)
	}
	return nil
}

func (s *bundleServiceImpl) CreateBundle(ctx context.Context, creatorID int64, name, country, currency string, securities []models.StoredSecurity) (*model.Bundle, error) {
	name = validation.SanitizeText(strings.TrimSpace(name))
	if err := validation.ValidateStringNotEmpty(name, "bundle name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(name, 100, "bundle name"); err != nil {
		return nil, err
	}
	if err := s.ValidateAllocations(securities); err != nil {
		return nil, err
	}

	count, err := model.CountBundlesByCreator(s.db, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count user bundles: %w", err)
	}
	if count >= s.maxBundles {
		return nil, ErrBundleLimitReached
	}

	normalized := make([]models.StoredSecurity, len(securities))
	for i, sec := range securities {
		normalized[i] = sec
		normalized[i].Symbol = strings.ToUpper(strings.TrimSpace(sec.Symbol))
	}

	bundle := &model.Bundle{
		CreatorID:  creatorID,
		Name:       name,
		Country:    strings.ToUpper(strings.TrimSpace(country)),
		Currency:   strings.ToUpper(strings.TrimSpace(currency)),
		Securities: normalized,
	}
	if err := bundle.Create(s.db); err != nil {
		return nil, fmt.Errorf("failed to save bundle: %w", err)
	}

	logger.InfoFromContext(ctx, "Bundle created", "bundleID", bundle.ID, "creatorID", creatorID, "securities", len(normalized))
	return bundle, nil
}

func (s *bundleServiceImpl) SummaryForBundle(ctx context.Context, bundle *model.Bundle, target models.TargetIncome) (*models.BundleSummary, error) {
	return s.buildSummary(ctx, bundle.Securities, target)
}

func (s *bundleServiceImpl) PreviewSummary(ctx context.Context, country string, securities []models.StoredSecurity, target models.TargetIncome) (*models.BundleSummary, error) {
	if err := s.ValidateAllocations(securities); err != nil {
		return nil, err
	}
	return s.buildSummary(ctx, securities, target)
}

// buildSummary is the orchestration core: it materializes market data for
// every stored allocation, then derives the whole summary from it. Shares
// depend on the average yield (through the implied principal), so the
// derivation runs in two passes.
func (s *bundleServiceImpl) buildSummary(ctx context.Context, stored []models.StoredSecurity, target models.TargetIncome) (*models.BundleSummary, error) {
	securities := make([]models.SecurityAllocation, 0, len(stored))
	var totalPercent float64
	for _, sec := range stored {
		symbol := strings.ToUpper(strings.TrimSpace(sec.Symbol))
		data, err := s.market.GetStockData(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to get market data for %s: %w", symbol, err)
		}
		securities = append(securities, models.SecurityAllocation{
			Symbol:          symbol,
			Percent:         sec.Percent,
			Price:           data.Price,
			Yield:           data.DividendYield,
			DividendGrowth:  bundlecalc.DividendGrowth(data.DividendHistory),
			Industry:        data.Industry,
			Logo:            data.Logo,
			DividendHistory: data.DividendHistory,
		})
		totalPercent += sec.Percent
	}

	yields := make([]bundlecalc.WeightedValue, len(securities))
	growths := make([]bundlecalc.WeightedValue, len(securities))
	for i, sec := range securities {
		yields[i] = bundlecalc.WeightedValue{Value: sec.Yield, Weight: sec.Percent}
		growths[i] = bundlecalc.WeightedValue{Value: sec.DividendGrowth, Weight: sec.Percent}
	}
	averageYield := bundlecalc.WeightedAverage(yields)
	averageGrowth := bundlecalc.WeightedAverage(growths)

	// The principal is whatever capital the average yield implies for the
	// yearly target; per-security share counts follow from it.
	totalCost := bundlecalc.PrincipalForIncome(target.Yearly, averageYield)
	for i := range securities {
		securities[i].Shares = bundlecalc.SharesFor(totalCost, totalPercent, securities[i].Percent, securities[i].Price)
	}

	summary := &models.BundleSummary{
		Securities:    securities,
		TotalPercent:  utils.Round2(totalPercent),
		AverageYield:  averageYield,
		AverageGrowth: averageGrowth,
		TotalCost:     totalCost,
		BundleScore:   bundlecalc.BundleScore(securities),
		SectorCount:   bundlecalc.SectorCount(securities),
		Target:        target,
		Calendar:      bundlecalc.CalendarForBundle(securities, time.Now()),
	}
	return summary, nil
}
