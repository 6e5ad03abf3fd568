package models

import "time"

// DividendStatus distinguishes confirmed historical payments from the
// synthetic records a prediction cycle may prepend. Growth and payout
// calculations must only ever see confirmed (or most-recent) records;
// predicted ones are display-only forward guidance.
type DividendStatus string

const (
	StatusConfirmed  DividendStatus = "confirmed"
	StatusMostRecent DividendStatus = "mostRecent"
	StatusPredicted  DividendStatus = "predicted"
)

// IsConfirmed reports whether the record is actual payment history.
// StatusMostRecent is still a confirmed payment; it only carries an extra
// display tag.
func (s DividendStatus) IsConfirmed() bool {
	switch s {
	case StatusConfirmed, StatusMostRecent:
		return true
	case StatusPredicted:
		return false
	}
	// Untagged records from older provider payloads are historical facts.
	return true
}

// DividendPayment is a single per-share dividend payment record.
// PayDate is the authoritative date for every aggregation in the engine.
type DividendPayment struct {
	Symbol         string         `json:"symbol"`
	ExDividendDate time.Time      `json:"date"`
	PayDate        time.Time      `json:"payDate"`
	RecordDate     time.Time      `json:"recordDate"`
	Amount         float64        `json:"amount"`
	AdjustedAmount float64        `json:"adjustedAmount"`
	Currency       string         `json:"currency"`
	Status         DividendStatus `json:"status,omitempty"`
}
