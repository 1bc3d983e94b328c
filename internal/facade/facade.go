// Package facade is the single entry point consumers use to read market
// data. It wraps the TTL cache around the failover orchestrator and exposes
// one method per data kind; callers never see provider identity or cache
// internals, only a typed payload (plus a staleness mark) or the structured
// failure. It never substitutes a default value for missing data: a wrong
// score computed from placeholder numbers is worse than "unavailable".
package facade

import (
	"context"
	"fmt"
	"time"

	"github.com/clcc2019/stock-intraday-trading/internal/cache"
	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
)

// Resolver is the fetch path invoked on a cache miss.
type Resolver interface {
	Resolve(ctx context.Context, key marketdata.Key) (marketdata.Result, error)
}

// TTLTable maps each data kind to its cache lifetime.
type TTLTable map[marketdata.Kind]time.Duration

// Default TTLs balance freshness against provider rate limits: technical
// and intraday kinds refresh every five minutes, fundamentals move slower.
const (
	DefaultTTL             = 5 * time.Minute
	DefaultFundamentalsTTL = 10 * time.Minute
)

// DefaultTTLs returns the standard TTL table.
func DefaultTTLs() TTLTable {
	t := make(TTLTable, len(marketdata.Kinds()))
	for _, k := range marketdata.Kinds() {
		t[k] = DefaultTTL
	}
	t[marketdata.KindFundamentals] = DefaultFundamentalsTTL
	return t
}

// Facade composes cache lookups with orchestrated fetches.
type Facade struct {
	cache    *cache.Cache
	resolver Resolver
	ttls     TTLTable
}

// New creates a facade. A nil or incomplete ttls falls back to the
// defaults per kind.
func New(c *cache.Cache, r Resolver, ttls TTLTable) *Facade {
	return &Facade{cache: c, resolver: r, ttls: ttls}
}

func (f *Facade) ttlFor(kind marketdata.Kind) time.Duration {
	if ttl, ok := f.ttls[kind]; ok && ttl > 0 {
		return ttl
	}
	if kind == marketdata.KindFundamentals {
		return DefaultFundamentalsTTL
	}
	return DefaultTTL
}

// get runs the cached fetch for one key and reports staleness.
func (f *Facade) get(ctx context.Context, key marketdata.Key) (any, bool, error) {
	return f.cache.GetOrLoad(ctx, key, f.ttlFor(key.Kind), func(ctx context.Context) (any, error) {
		res, err := f.resolver.Resolve(ctx, key)
		if err != nil {
			return nil, err
		}
		return res.Payload, nil
	})
}

// as converts a cached payload to its kind-specific type.
func as[T any](v any, key marketdata.Key) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected payload type %T for %s", v, key)
	}
	return t, nil
}

func lookup[T any](ctx context.Context, f *Facade, key marketdata.Key) (T, bool, error) {
	v, stale, err := f.get(ctx, key)
	if err != nil {
		var zero T
		return zero, false, err
	}
	t, err := as[T](v, key)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return t, stale, nil
}

// DailyBars returns daily OHLCV history for symbol.
func (f *Facade) DailyBars(ctx context.Context, symbol string, rng marketdata.Range) ([]marketdata.Bar, bool, error) {
	return lookup[[]marketdata.Bar](ctx, f, marketdata.Key{
		Symbol: symbol, Kind: marketdata.KindDailyBars, Range: rng,
	})
}

// WeeklyBars returns weekly OHLCV history for symbol.
func (f *Facade) WeeklyBars(ctx context.Context, symbol string, rng marketdata.Range) ([]marketdata.Bar, bool, error) {
	return lookup[[]marketdata.Bar](ctx, f, marketdata.Key{
		Symbol: symbol, Kind: marketdata.KindWeeklyBars, Range: rng,
	})
}

// Fundamentals returns the fundamental snapshot for symbol.
func (f *Facade) Fundamentals(ctx context.Context, symbol string) (*marketdata.Fundamentals, bool, error) {
	return lookup[*marketdata.Fundamentals](ctx, f, marketdata.Key{
		Symbol: symbol, Kind: marketdata.KindFundamentals,
	})
}

// IntradayQuote returns the latest realtime quote for symbol.
func (f *Facade) IntradayQuote(ctx context.Context, symbol string) (*marketdata.Quote, bool, error) {
	return lookup[*marketdata.Quote](ctx, f, marketdata.Key{
		Symbol: symbol, Kind: marketdata.KindIntradayQuote,
	})
}

// OrderBook returns the current five-level depth snapshot for symbol.
func (f *Facade) OrderBook(ctx context.Context, symbol string) (*marketdata.OrderBook, bool, error) {
	return lookup[*marketdata.OrderBook](ctx, f, marketdata.Key{
		Symbol: symbol, Kind: marketdata.KindOrderBookSnapshot,
	})
}

// MoneyFlow returns the latest capital flow breakdown for symbol.
func (f *Facade) MoneyFlow(ctx context.Context, symbol string) (*marketdata.MoneyFlow, bool, error) {
	return lookup[*marketdata.MoneyFlow](ctx, f, marketdata.Key{
		Symbol: symbol, Kind: marketdata.KindMoneyFlow,
	})
}
