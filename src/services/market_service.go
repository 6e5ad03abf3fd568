package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/net/publicsuffix"

	"github.com/username/bundlefolio/backend/src/bundlecalc"
	"github.com/username/bundlefolio/backend/src/logger"
	"github.com/username/bundlefolio/backend/src/model"
	"github.com/username/bundlefolio/backend/src/models"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Exchanges the builder exposes. Canada maps to the Toronto exchange.
var countryToExchange = map[string]string{
	"US": "US",
	"CA": "TO",
}

// Profiles older than this get refreshed from the provider on next use.
const profileMaxAge = 30 * 24 * time.Hour

// How far back dividend history is requested. Five years comfortably covers
// the growth estimator's needs for quarterly and monthly payers.
const dividendLookback = 5

// --- API Response Structs ---

type finnhubSymbol struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
}

type finnhubSearchResponse struct {
	Count  int             `json:"count"`
	Result []finnhubSymbol `json:"result"`
}

type finnhubQuoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	PreviousClose float64 `json:"pc"`
}

type finnhubProfileResponse struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Industry string `json:"finnhubIndustry"`
	Logo     string `json:"logo"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`
}

type finnhubDividend struct {
	Symbol         string  `json:"symbol"`
	Date           string  `json:"date"`
	PayDate        string  `json:"payDate"`
	RecordDate     string  `json:"recordDate"`
	Amount         float64 `json:"amount"`
	AdjustedAmount float64 `json:"adjustedAmount"`
	Currency       string  `json:"currency"`
}

// --- Service Implementation ---

type marketServiceImpl struct {
	httpClient http.Client
	cache      *cache.Cache
	db         *sql.DB
	apiKey     string
	baseURL    string
}

func NewMarketDataService(apiKey string, c *cache.Cache, db *sql.DB, httpTimeout time.Duration) MarketDataService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &marketServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: httpTimeout,
		},
		cache:   c,
		db:      db,
		apiKey:  apiKey,
		baseURL: finnhubBaseURL,
	}
}

func (s *marketServiceImpl) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("token", s.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call provider API %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("provider rate limit hit on %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider API %s returned non-OK status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response from %s: %w", path, err)
	}
	return nil
}

func (s *marketServiceImpl) GetStockList(ctx context.Context, exchange string) ([]StockListing, error) {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if mapped, ok := countryToExchange[exchange]; ok {
		exchange = mapped
	}

	cacheKey := "stocklist:" + exchange
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.([]StockListing), nil
	}

	var symbols []finnhubSymbol
	params := url.Values{}
	params.Set("exchange", exchange)
	if err := s.getJSON(ctx, "/stock/symbol", params, &symbols); err != nil {
		return nil, err
	}

	listings := make([]StockListing, 0, len(symbols))
	for _, sym := range symbols {
		if sym.Symbol == "" {
			continue
		}
		listings = append(listings, StockListing{
			Symbol:      sym.Symbol,
			Description: sym.Description,
			Type:        sym.Type,
			Currency:    sym.Currency,
		})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].Symbol < listings[j].Symbol })

	// The full list is large and very stable; keep it well past the default TTL.
	s.cache.Set(cacheKey, listings, 12*time.Hour)
	logger.L.Info("Fetched stock list", "exchange", exchange, "count", len(listings))
	return listings, nil
}

func (s *marketServiceImpl) SearchSymbols(ctx context.Context, query string) ([]StockListing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []StockListing{}, nil
	}

	cacheKey := "search:" + strings.ToUpper(query)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.([]StockListing), nil
	}

	var searchData finnhubSearchResponse
	params := url.Values{}
	params.Set("q", query)
	if err := s.getJSON(ctx, "/search", params, &searchData); err != nil {
		return nil, err
	}

	results := make([]StockListing, 0, len(searchData.Result))
	for _, sym := range searchData.Result {
		if sym.Symbol == "" {
			continue
		}
		results = append(results, StockListing{
			Symbol:      sym.Symbol,
			Description: sym.Description,
			Type:        sym.Type,
			Currency:    sym.Currency,
		})
	}

	s.cache.Set(cacheKey, results, cache.DefaultExpiration)
	return results, nil
}

// GetStockData aggregates quote, profile and dividend history for a symbol.
// Quotes and history go through the in-memory cache; company profiles are
// additionally persisted in symbol_profiles so restarts do not refetch them.
func (s *marketServiceImpl) GetStockData(ctx context.Context, symbol string) (*StockData, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	cacheKey := "stockdata:" + symbol
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*StockData), nil
	}

	price, err := s.fetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	profile, err := s.getProfile(ctx, symbol)
	if err != nil {
		logger.L.Warn("Could not get company profile", "symbol", symbol, "error", err)
		profile = model.SymbolProfile{Symbol: symbol}
	}

	history, err := s.fetchDividends(ctx, symbol)
	if err != nil {
		logger.L.Warn("Could not get dividend history", "symbol", symbol, "error", err)
		history = nil
	}

	data := &StockData{
		Symbol:          symbol,
		Name:            profile.Name,
		Price:           price,
		DividendYield:   bundlecalc.DividendYield(trailingAnnualDividend(history, time.Now()), price),
		Industry:        profile.Industry.String,
		Logo:            profile.Logo.String,
		DividendHistory: history,
	}

	s.cache.Set(cacheKey, data, cache.DefaultExpiration)
	return data, nil
}

func (s *marketServiceImpl) fetchQuote(ctx context.Context, symbol string) (float64, error) {
	var quote finnhubQuoteResponse
	params := url.Values{}
	params.Set("symbol", symbol)
	if err := s.getJSON(ctx, "/quote", params, &quote); err != nil {
		return 0, err
	}
	return quote.Current, nil
}

// getProfile serves from the symbol_profiles table when fresh, otherwise
// refetches from the provider and upserts the row.
func (s *marketServiceImpl) getProfile(ctx context.Context, symbol string) (model.SymbolProfile, error) {
	profiles, err := model.GetProfilesBySymbols(s.db, []string{symbol})
	if err != nil {
		logger.L.Error("Failed to read cached profiles from DB", "symbol", symbol, "error", err)
	}
	if p, ok := profiles[symbol]; ok {
		if p.LastCheckedAt.Valid && time.Since(p.LastCheckedAt.Time) < profileMaxAge {
			return p, nil
		}
	}

	var resp finnhubProfileResponse
	params := url.Values{}
	params.Set("symbol", symbol)
	if err := s.getJSON(ctx, "/stock/profile2", params, &resp); err != nil {
		// A stale cached profile beats no profile.
		if p, ok := profiles[symbol]; ok {
			return p, nil
		}
		return model.SymbolProfile{}, err
	}
	if resp.Ticker == "" && resp.Name == "" {
		if p, ok := profiles[symbol]; ok {
			return p, nil
		}
		return model.SymbolProfile{}, fmt.Errorf("no profile found for %s", symbol)
	}

	p := model.SymbolProfile{
		Symbol:   symbol,
		Name:     resp.Name,
		Industry: sql.NullString{String: resp.Industry, Valid: resp.Industry != ""},
		Logo:     sql.NullString{String: resp.Logo, Valid: resp.Logo != ""},
		Currency: resp.Currency,
		Exchange: sql.NullString{String: resp.Exchange, Valid: resp.Exchange != ""},
	}
	if err := model.UpsertProfile(s.db, p); err != nil {
		logger.L.Warn("Failed to persist company profile", "symbol", symbol, "error", err)
	}
	return p, nil
}

func (s *marketServiceImpl) fetchDividends(ctx context.Context, symbol string) ([]models.DividendPayment, error) {
	now := time.Now()
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", now.AddDate(-dividendLookback, 0, 0).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	var rows []finnhubDividend
	if err := s.getJSON(ctx, "/stock/dividend", params, &rows); err != nil {
		return nil, err
	}

	history := make([]models.DividendPayment, 0, len(rows))
	for _, row := range rows {
		payDate := parseProviderDate(row.PayDate)
		if payDate.IsZero() {
			// Some records only carry the ex-dividend date.
			payDate = parseProviderDate(row.Date)
		}
		if payDate.IsZero() || row.Amount <= 0 {
			continue
		}
		history = append(history, models.DividendPayment{
			Symbol:         symbol,
			ExDividendDate: parseProviderDate(row.Date),
			PayDate:        payDate,
			RecordDate:     parseProviderDate(row.RecordDate),
			Amount:         row.Amount,
			AdjustedAmount: row.AdjustedAmount,
			Currency:       row.Currency,
			Status:         models.StatusConfirmed,
		})
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].PayDate.After(history[j].PayDate)
	})
	return history, nil
}

func parseProviderDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// trailingAnnualDividend sums confirmed per-share payments over the last
// twelve months, the base for the forward yield shown on each security.
func trailingAnnualDividend(history []models.DividendPayment, now time.Time) float64 {
	cutoff := now.AddDate(-1, 0, 0)
	var total float64
	for _, payment := range history {
		if !payment.Status.IsConfirmed() {
			continue
		}
		if payment.PayDate.Before(cutoff) || payment.PayDate.After(now) {
			continue
		}
		total += payment.Amount
	}
	return total
}
