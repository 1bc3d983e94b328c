package provider

import (
	"context"
	"time"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
)

// Request describes one unit of data to fetch from a provider.
type Request struct {
	Symbol string
	Kind   marketdata.Kind
	Range  marketdata.Range
}

// Client is the capability interface every data provider implements.
// A client fetches exactly the kinds it declares and translates
// provider-specific failures into classified FetchErrors; it must not
// cache locally (caching is centralized) and must abort promptly when
// the context is cancelled.
type Client interface {
	// Name returns the provider's stable identifier, used in failure
	// reports and logs.
	Name() string

	// Kinds returns the data kinds this client supports.
	Kinds() []marketdata.Kind

	// Fetch retrieves the requested data. On failure it returns a
	// *FetchError; ordinary remote failures (HTTP error, malformed
	// response, empty dataset) are errors, never panics. The payload
	// type depends on the request kind.
	Fetch(ctx context.Context, req Request) (any, error)
}

// Descriptor carries the failover policy for one registered provider.
// Immutable after registry construction.
type Descriptor struct {
	Name       string
	Priority   int
	Kinds      []marketdata.Kind
	Timeout    time.Duration
	MaxRetries int
}

// Supports reports whether the descriptor covers the given kind.
func (d Descriptor) Supports(kind marketdata.Kind) bool {
	for _, k := range d.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
