package marketdata

// Bar is a single OHLCV candle, daily or weekly.
type Bar struct {
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	Amount    float64 `json:"amount"`
	Turnover  float64 `json:"turnover"`
	PctChange float64 `json:"pct_change"`
}

// Fundamentals is the per-symbol valuation and profitability snapshot
// consumed by the scoring rubric.
type Fundamentals struct {
	Symbol     string  `json:"symbol"`
	PE         float64 `json:"pe"`
	PB         float64 `json:"pb"`
	ROE        float64 `json:"roe"`
	EPS        float64 `json:"eps"`
	BVPS       float64 `json:"bvps"`
	RevenueYoY float64 `json:"revenue_yoy"`
	ProfitYoY  float64 `json:"profit_yoy"`
	MarketCap  float64 `json:"market_cap"`
}

// Quote is the latest realtime quote for a symbol.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PrevClose float64 `json:"prev_close"`
	Volume    int64   `json:"volume"`
	Amount    float64 `json:"amount"`
	Time      string  `json:"time"`
}

// Level is one price level of market depth.
type Level struct {
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// OrderBook is a five-level bid/ask snapshot. Bids and Asks are ordered
// best price first.
type OrderBook struct {
	Symbol string  `json:"symbol"`
	Bids   []Level `json:"bids"`
	Asks   []Level `json:"asks"`
	Time   string  `json:"time"`
}

// MoneyFlow is the per-symbol capital flow breakdown for the latest session.
// Net values are in CNY; positive means net inflow.
type MoneyFlow struct {
	Symbol         string  `json:"symbol"`
	Date           string  `json:"date"`
	MainNetInflow  float64 `json:"main_net_inflow"`
	MainNetPct     float64 `json:"main_net_pct"`
	SuperNetInflow float64 `json:"super_net_inflow"`
	LargeNetInflow float64 `json:"large_net_inflow"`
	MediumNetInflow float64 `json:"medium_net_inflow"`
	SmallNetInflow float64 `json:"small_net_inflow"`
}

// Result wraps a successfully fetched payload together with metadata about
// how it was obtained. Payload holds the kind-specific type ([]Bar,
// *Fundamentals, *Quote, *OrderBook, *MoneyFlow).
type Result struct {
	// Payload is the fetched data. Consumers type-assert based on the
	// facade method they called.
	Payload any

	// Provider is the name of the source that produced the payload.
	Provider string

	// Stale marks a value served past its TTL under the
	// serve-stale-on-failure policy. False on every fresh fetch.
	Stale bool
}
