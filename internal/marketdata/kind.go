package marketdata

// Kind identifies a category of stock data with its own schema, eligible
// providers, and refresh cadence.
type Kind string

const (
	// KindDailyBars is daily OHLCV history (forward-adjusted).
	KindDailyBars Kind = "daily_bars"
	// KindWeeklyBars is weekly OHLCV history (forward-adjusted).
	KindWeeklyBars Kind = "weekly_bars"
	// KindFundamentals is the per-symbol fundamental snapshot (PE, PB, ROE, ...).
	KindFundamentals Kind = "fundamentals"
	// KindIntradayQuote is the latest realtime quote.
	KindIntradayQuote Kind = "intraday_quote"
	// KindOrderBookSnapshot is the current five-level bid/ask depth.
	KindOrderBookSnapshot Kind = "order_book"
	// KindMoneyFlow is the per-symbol capital flow breakdown.
	KindMoneyFlow Kind = "money_flow"
)

// Kinds lists every data kind the system supports, in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindDailyBars,
		KindWeeklyBars,
		KindFundamentals,
		KindIntradayQuote,
		KindOrderBookSnapshot,
		KindMoneyFlow,
	}
}

// Exchange maps a 6-digit A-share code to its exchange prefix.
// Codes starting with "6" trade on Shanghai, "0" and "3" on Shenzhen.
func Exchange(symbol string) string {
	if symbol == "" {
		return "sh"
	}
	switch symbol[0] {
	case '0', '3':
		return "sz"
	default:
		return "sh"
	}
}
