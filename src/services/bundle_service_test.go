package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/bundlefolio/backend/src/logger"
	"github.com/username/bundlefolio/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// fakeMarket serves canned stock data keyed by symbol.
type fakeMarket struct {
	data map[string]*StockData
	err  error
}

func (f *fakeMarket) GetStockList(ctx context.Context, exchange string) ([]StockListing, error) {
	return nil, nil
}

func (f *fakeMarket) SearchSymbols(ctx context.Context, query string) ([]StockListing, error) {
	return nil, nil
}

func (f *fakeMarket) GetStockData(ctx context.Context, symbol string) (*StockData, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.data[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return data, nil
}

// quarterlyHistory returns n confirmed quarterly payments of the given
// amount, newest first, ending one month before now.
func quarterlyHistory(symbol string, amount float64, n int) []models.DividendPayment {
	now := time.Now()
	history := make([]models.DividendPayment, n)
	for i := 0; i < n; i++ {
		history[i] = models.DividendPayment{
			Symbol:  symbol,
			PayDate: now.AddDate(0, -1-3*i, 0),
			Amount:  amount,
			Status:  models.StatusConfirmed,
		}
	}
	return history
}

func TestValidateAllocations(t *testing.T) {
	svc := NewBundleService(nil, &fakeMarket{}, 20)

	tests := []struct {
		name       string
		securities []models.StoredSecurity
		wantErr    error
	}{
		{
			name: "valid split",
			securities: []models.StoredSecurity{
				{Symbol: "KO", Percent: 60},
				{Symbol: "PEP", Percent: 40},
			},
		},
		{
			name:       "empty bundle",
			securities: nil,
			wantErr:    ErrEmptyBundle,
		},
		{
			name: "zero percent entry",
			securities: []models.StoredSecurity{
				{Symbol: "KO", Percent: 100},
				{Symbol: "PEP", Percent: 0},
			},
			wantErr: ErrZeroPercentStock,
		},
		{
			name: "duplicate symbol",
			securities: []models.StoredSecurity{
				{Symbol: "KO", Percent: 50},
				{Symbol: "ko", Percent: 50},
			},
			wantErr: ErrDuplicateSymbol,
		},
		{
			name: "total under 100",
			securities: []models.StoredSecurity{
				{Symbol: "KO", Percent: 60},
				{Symbol: "PEP", Percent: 39},
			},
			wantErr: ErrAllocationNot100,
		},
		{
			name: "total over 100",
			securities: []models.StoredSecurity{
				{Symbol: "KO", Percent: 60},
				{Symbol: "PEP", Percent: 41},
			},
			wantErr: ErrAllocationNot100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ValidateAllocations(tc.securities)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestPreviewSummary(t *testing.T) {
	market := &fakeMarket{data: map[string]*StockData{
		"AAA": {
			Symbol:          "AAA",
			Price:           100,
			DividendYield:   4.0,
			Industry:        "Technology",
			DividendHistory: quarterlyHistory("AAA", 1.00, 8),
		},
		"BBB": {
			Symbol:          "BBB",
			Price:           50,
			DividendYield:   4.0,
			Industry:        "Energy",
			DividendHistory: quarterlyHistory("BBB", 0.50, 8),
		},
	}}
	svc := NewBundleService(nil, market, 20)

	target := models.TargetIncome{Daily: 3.29, Monthly: 100, Yearly: 1200}
	securities := []models.StoredSecurity{
		{Symbol: "AAA", Percent: 60},
		{Symbol: "BBB", Percent: 40},
	}

	summary, err := svc.PreviewSummary(context.Background(), "US", securities, target)
	require.NoError(t, err)

	assert.Equal(t, 100.0, summary.TotalPercent)
	assert.Equal(t, 4.0, summary.AverageYield)
	// Flat payment histories mean zero growth for both holdings.
	assert.Equal(t, 0.0, summary.AverageGrowth)
	// 1200 a year at a 4% yield needs 30000 of capital.
	assert.Equal(t, 30000.0, summary.TotalCost)
	assert.Equal(t, 2, summary.SectorCount)

	require.Len(t, summary.Securities, 2)
	assert.Equal(t, 180.0, summary.Securities[0].Shares)
	assert.Equal(t, 240.0, summary.Securities[1].Shares)

	// Yield 4 * 0.5 + safety 60 * 0.3 - expense 0.1 * 0.2 = 19.98, scaled to 2.0.
	assert.InDelta(t, 2.0, summary.BundleScore, 0.001)

	// Four in-window payments per holding: 180*1.00 and 240*0.50 each quarter.
	require.NotNil(t, summary.Calendar)
	assert.InDelta(t, 1200.0, summary.Calendar.AnnualTotal, 0.01)
	assert.InDelta(t, 100.0, summary.Calendar.Advance, 0.01)

	var monthSum float64
	for _, v := range summary.Calendar.MonthlyTotals {
		monthSum += v
	}
	assert.InDelta(t, summary.Calendar.AnnualTotal, monthSum, 0.01)
}

func TestPreviewSummaryRejectsInvalidAllocations(t *testing.T) {
	svc := NewBundleService(nil, &fakeMarket{}, 20)
	_, err := svc.PreviewSummary(context.Background(), "US", []models.StoredSecurity{
		{Symbol: "AAA", Percent: 50},
	}, models.TargetIncome{})
	assert.ErrorIs(t, err, ErrAllocationNot100)
}

func TestPreviewSummaryPropagatesMarketErrors(t *testing.T) {
	wantErr := errors.New("provider down")
	svc := NewBundleService(nil, &fakeMarket{err: wantErr}, 20)
	_, err := svc.PreviewSummary(context.Background(), "US", []models.StoredSecurity{
		{Symbol: "AAA", Percent: 100},
	}, models.TargetIncome{})
	assert.ErrorIs(t, err, wantErr)
}
