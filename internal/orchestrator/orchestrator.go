package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
	"github.com/clcc2019/stock-intraday-trading/internal/ratelimit"
	"github.com/clcc2019/stock-intraday-trading/internal/registry"
)

// Attempt records one failed provider attempt for diagnostics.
type Attempt struct {
	Provider string
	Err      *provider.FetchError
}

// ExhaustedError is returned when every eligible provider failed. Attempts
// holds each failure in the order it happened.
type ExhaustedError struct {
	Key      marketdata.Key
	Attempts []Attempt
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Provider, a.Err.Reason))
	}
	return fmt.Sprintf("all providers failed for %s: %s", e.Key, strings.Join(parts, "; "))
}

// Orchestrator resolves a fetch key by walking the registry's providers in
// priority order. Outbound calls across all keys share one weighted
// semaphore, the system's defense against provider throttling, plus the
// per-provider rate limiters.
type Orchestrator struct {
	registry *registry.Registry
	limiter  *ratelimit.Limiter
	sem      *semaphore.Weighted
}

// New creates an orchestrator. maxConcurrent bounds simultaneous outbound
// network calls across every caller and key.
func New(reg *registry.Registry, limiter *ratelimit.Limiter, maxConcurrent int64) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Orchestrator{
		registry: reg,
		limiter:  limiter,
		sem:      semaphore.NewWeighted(maxConcurrent),
	}
}

// Resolve fetches the data for key, failing over between providers.
// On success the result names the provider that produced it. On total
// exhaustion it returns an *ExhaustedError listing every attempt; a
// cancelled context returns a cancelled *provider.FetchError immediately.
// It never fabricates a default payload.
func (o *Orchestrator) Resolve(ctx context.Context, key marketdata.Key) (marketdata.Result, error) {
	var attempts []Attempt

	for _, entry := range o.registry.ProvidersFor(key.Kind) {
		name := entry.Descriptor.Name
		maxRetries := entry.Descriptor.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		st := stateTrying
		for attempt := 0; st == stateTrying || st == stateRetrying; attempt++ {
			payload, fe := o.attempt(ctx, entry, key)
			if fe == nil {
				slog.Debug("fetch resolved",
					"key", key.String(), "provider", name, "attempt", attempt)
				return marketdata.Result{Payload: payload, Provider: name}, nil
			}

			attempts = append(attempts, Attempt{Provider: name, Err: fe})

			// The caller going away overrides any per-attempt classification.
			if ctx.Err() != nil {
				fe = provider.NewCancelledError(ctx.Err())
				return marketdata.Result{}, fe
			}

			st = next(fe.Reason, attempt, maxRetries)
			slog.Debug("fetch attempt failed",
				"key", key.String(), "provider", name, "attempt", attempt,
				"reason", string(fe.Reason), "state", st.String())

			if st == stateCancelled {
				return marketdata.Result{}, fe
			}
		}
	}

	return marketdata.Result{}, &ExhaustedError{Key: key, Attempts: attempts}
}

// attempt runs one gated provider call with its per-attempt timeout.
func (o *Orchestrator) attempt(ctx context.Context, entry registry.Entry, key marketdata.Key) (any, *provider.FetchError) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, provider.NewCancelledError(err)
	}
	defer o.sem.Release(1)

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx, entry.Descriptor.Name); err != nil {
			return nil, provider.NewCancelledError(err)
		}
	}

	attemptCtx := ctx
	if entry.Descriptor.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, entry.Descriptor.Timeout)
		defer cancel()
	}

	payload, err := entry.Client.Fetch(attemptCtx, provider.Request{
		Symbol: key.Symbol,
		Kind:   key.Kind,
		Range:  key.Range,
	})
	if err != nil {
		return nil, provider.Classify(err)
	}
	return payload, nil
}
