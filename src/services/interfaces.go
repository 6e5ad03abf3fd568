package services

import (
	"context"
	"errors"

	"github.com/username/bundlefolio/backend/src/model"
	"github.com/username/bundlefolio/backend/src/models"
)

// Common service errors.
var (
	ErrAllocationNot100   = errors.New("security allocations must total exactly 100 percent")
	ErrZeroPercentStock   = errors.New("bundle contains a security with 0% allocation")
	ErrDuplicateSymbol    = errors.New("bundle contains a duplicate symbol")
	ErrEmptyBundle        = errors.New("bundle has no securities")
	ErrBundleLimitReached = errors.New("bundle limit reached")
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrPredictionFailed   = errors.New("dividend prediction failed")
)

// StockListing is one row of the per-exchange stock list used by the
// builder's search box.
type StockListing struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Currency    string `json:"currency"`
}

// StockData is the fully-materialized market data for one security, the
// shape the engine consumes.
type StockData struct {
	Symbol          string                   `json:"symbol"`
	Name            string                   `json:"name"`
	Price           float64                  `json:"price"`
	DividendYield   float64                  `json:"dividendYield"`
	Industry        string                   `json:"industry"`
	Logo            string                   `json:"logo"`
	DividendHistory []models.DividendPayment `json:"dividendHistory"`
}

// MarketDataService fetches quotes, profiles and dividend history from the
// market-data provider. Implementations cache aggressively; callers treat
// every method as cheap.
type MarketDataService interface {
	GetStockList(ctx context.Context, exchange string) ([]StockListing, error)
	SearchSymbols(ctx context.Context, query string) ([]StockListing, error)
	GetStockData(ctx context.Context, symbol string) (*StockData, error)
}

// BundleService validates allocations and orchestrates the engine into the
// summaries the builder and viewer screens render.
type BundleService interface {
	ValidateAllocations(securities []models.StoredSecurity) error
	CreateBundle(ctx context.Context, creatorID int64, name, country, currency string, securities []models.StoredSecurity) (*model.Bundle, error)
	SummaryForBundle(ctx context.Context, bundle *model.Bundle, target models.TargetIncome) (*models.BundleSummary, error)
	PreviewSummary(ctx context.Context, country string, securities []models.StoredSecurity, target models.TargetIncome) (*models.BundleSummary, error)
}

// PredictionService asks the LLM collaborator for the next likely dividend
// payment and splices it into a history as a predicted record.
type PredictionService interface {
	PredictNextDividend(ctx context.Context, symbol string, history []models.DividendPayment) ([]models.DividendPayment, error)
}

// EmailService sends transactional mail (verification, password reset).
type EmailService interface {
	SendVerificationEmail(toEmail, username, token string) error
	SendPasswordResetEmail(toEmail, username, token string) error
}
