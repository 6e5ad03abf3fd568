package utils

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/bundlefolio/backend/src/logger"
)

// SendJSONError writes a JSON error body with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Round2 rounds to 2 decimal places using plain float math. Good enough for
// rates and share counts; use RoundMoney for currency amounts.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundMoney rounds a currency amount to the nearest cent through a decimal
// representation, avoiding binary floating-point artifacts like
// 37499.999999999996 on amounts that should be exact.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
