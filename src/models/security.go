package models

// SecurityAllocation is one entry in a bundle: a ticker with its allocation
// weight plus the market data the engine needs to derive everything else.
// Shares and DividendGrowth are derived values; they are recomputed wholesale
// whenever the bundle principal, a percent or a price changes, never patched.
type SecurityAllocation struct {
	Symbol          string            `json:"symbol"`
	Percent         float64           `json:"percent"`
	Price           float64           `json:"price"`
	Shares          float64           `json:"shares"`
	Yield           float64           `json:"yield"`
	DividendGrowth  float64           `json:"dividendGrowth"`
	Industry        string            `json:"industry"`
	Logo            string            `json:"logo,omitempty"`
	DividendHistory []DividendPayment `json:"dividendHistory,omitempty"`
}

// StoredSecurity is the persisted shape of an allocation: only symbol and
// percent are a source of truth, everything else is recomputable.
type StoredSecurity struct {
	Symbol  string  `json:"symbol"`
	Percent float64 `json:"percent"`
	Shares  float64 `json:"shares"`
	Logo    string  `json:"logo,omitempty"`
}
