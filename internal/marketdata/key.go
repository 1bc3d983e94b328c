package marketdata

import "fmt"

// Range bounds a historical query. Dates use the YYYYMMDD format the
// provider APIs accept. A zero Range means "provider default lookback".
type Range struct {
	Start string
	End   string
}

// IsZero reports whether no explicit range was requested.
func (r Range) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Key uniquely identifies a cacheable unit of data. Two requests for the
// same symbol, kind and range must produce equal keys.
type Key struct {
	Symbol string
	Kind   Kind
	Range  Range
}

// String returns a hierarchical key for cache lookup and logging.
// Format: md:{kind}:{symbol}[:{start}-{end}]
// Examples:
//   - md:daily_bars:600519
//   - md:daily_bars:600519:20250101-20250601
//   - md:intraday_quote:000001
func (k Key) String() string {
	if k.Range.IsZero() {
		return fmt.Sprintf("md:%s:%s", k.Kind, k.Symbol)
	}
	return fmt.Sprintf("md:%s:%s:%s-%s", k.Kind, k.Symbol, k.Range.Start, k.Range.End)
}
