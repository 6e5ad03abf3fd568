package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/username/bundlefolio/backend/src/database"
	"github.com/username/bundlefolio/backend/src/logger"
	"github.com/username/bundlefolio/backend/src/model"
	"github.com/username/bundlefolio/backend/src/security/validation"
	"github.com/username/bundlefolio/backend/src/services"
)

type TickerHandler struct {
	marketService     services.MarketDataService
	predictionService services.PredictionService
}

func NewTickerHandler(marketService services.MarketDataService, predictionService services.PredictionService) *TickerHandler {
	return &TickerHandler{
		marketService:     marketService,
		predictionService: predictionService,
	}
}

// exchangeForRequest resolves which exchange to list: an explicit ?country=
// wins, otherwise the authenticated user's saved preference, otherwise US.
func exchangeForRequest(r *http.Request) string {
	if country := strings.TrimSpace(r.URL.Query().Get("country")); country != "" {
		return country
	}
	if userID, ok := GetUserIDFromContext(r.Context()); ok {
		if user, err := model.GetUserByID(database.DB, userID); err == nil && user.PreferredCountry != "" {
			return user.PreferredCountry
		}
	}
	return "US"
}

func (h *TickerHandler) HandleGetStockList(w http.ResponseWriter, r *http.Request) {
	exchange := exchangeForRequest(r)
	listings, err := h.marketService.GetStockList(r.Context(), exchange)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to fetch stock list", "exchange", exchange, "error", err)
		sendJSONError(w, "Failed to fetch stock list", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listings)
}

func (h *TickerHandler) HandleSearchSymbols(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		sendJSONError(w, "Query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	results, err := h.marketService.SearchSymbols(r.Context(), query)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Symbol search failed", "query", query, "error", err)
		sendJSONError(w, "Symbol search failed", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func (h *TickerHandler) HandleGetStockData(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if err := validation.ValidateSymbol(symbol); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.marketService.GetStockData(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, services.ErrSymbolNotFound) {
			sendJSONError(w, "Symbol not found", http.StatusNotFound)
			return
		}
		logger.ErrorFromContext(r.Context(), "Failed to fetch stock data", "symbol", symbol, "error", err)
		sendJSONError(w, "Failed to fetch stock data", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// HandlePredictDividend returns the symbol's dividend history with the
// model's next-payment guess prepended as a predicted record.
func (h *TickerHandler) HandlePredictDividend(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if err := validation.ValidateSymbol(symbol); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.marketService.GetStockData(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, services.ErrSymbolNotFound) {
			sendJSONError(w, "Symbol not found", http.StatusNotFound)
			return
		}
		logger.ErrorFromContext(r.Context(), "Failed to fetch stock data for prediction", "symbol", symbol, "error", err)
		sendJSONError(w, "Failed to fetch stock data", http.StatusBadGateway)
		return
	}

	history, err := h.predictionService.PredictNextDividend(r.Context(), symbol, data.DividendHistory)
	if err != nil {
		logger.L.Warn("Dividend prediction unavailable", "symbol", symbol, "error", err)
		sendJSONError(w, "Dividend prediction is currently unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"symbol":          symbol,
		"dividendHistory": history,
	})
}
