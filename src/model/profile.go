package model

import (
	"database/sql"
	"strings"
	"time"
)

// SymbolProfile caches slow-changing company metadata (industry, logo,
// currency) per ticker so bundle views do not hit the provider's profile
// endpoint on every request. Quotes and dividend history stay in the
// short-lived in-memory cache; this table is the durable tier.
type SymbolProfile struct {
	Symbol        string
	Name          string
	Industry      sql.NullString
	Logo          sql.NullString
	Currency      string
	Exchange      sql.NullString
	CreatedAt     time.Time
	LastCheckedAt sql.NullTime
}

// GetProfilesBySymbols fetches cached profiles for a batch of tickers,
// keyed by symbol for easy lookup.
func GetProfilesBySymbols(db *sql.DB, symbols []string) (map[string]SymbolProfile, error) {
	profiles := make(map[string]SymbolProfile)
	if len(symbols) == 0 {
		return profiles, nil
	}
	query := `SELECT symbol, name, industry, logo, currency, exchange, created_at, last_checked_at
	FROM symbol_profiles WHERE symbol IN (?` + strings.Repeat(",?", len(symbols)-1) + `)`
	args := make([]interface{}, len(symbols))
	for i, s := range symbols {
		args[i] = s
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p SymbolProfile
		if err := rows.Scan(&p.Symbol, &p.Name, &p.Industry, &p.Logo, &p.Currency, &p.Exchange, &p.CreatedAt, &p.LastCheckedAt); err != nil {
			return nil, err
		}
		profiles[p.Symbol] = p
	}
	return profiles, rows.Err()
}

// UpsertProfile inserts or refreshes a cached profile.
func UpsertProfile(db *sql.DB, p SymbolProfile) error {
	_, err := db.Exec(`
	INSERT INTO symbol_profiles (symbol, name, industry, logo, currency, exchange, created_at, last_checked_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol) DO UPDATE SET
		name = excluded.name,
		industry = excluded.industry,
		logo = excluded.logo,
		currency = excluded.currency,
		exchange = excluded.exchange,
		last_checked_at = excluded.last_checked_at`,
		p.Symbol, p.Name, p.Industry, p.Logo, p.Currency, p.Exchange, time.Now(), time.Now())
	return err
}
