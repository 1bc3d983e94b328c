package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
)

// Facade is the subset of the data facade the refresher drives.
type Facade interface {
	DailyBars(ctx context.Context, symbol string, rng marketdata.Range) ([]marketdata.Bar, bool, error)
	IntradayQuote(ctx context.Context, symbol string) (*marketdata.Quote, bool, error)
	Fundamentals(ctx context.Context, symbol string) (*marketdata.Fundamentals, bool, error)
}

// Pruner bounds cache memory between refresh runs.
type Pruner interface {
	Prune(keepStale time.Duration) int
}

// Refresher keeps a watchlist warm by re-fetching its hot kinds on a cron
// schedule, so interactive consumers hit the cache during market hours.
// A refresh failure for one symbol never aborts the rest of the batch.
type Refresher struct {
	Cron      *cron.Cron
	Facade    Facade
	Pruner    Pruner
	Watchlist []string
	KeepStale time.Duration
	Ctx       context.Context
}

// NewRefresher creates a refresher over the given watchlist.
func NewRefresher(ctx context.Context, f Facade, p Pruner, watchlist []string) *Refresher {
	return &Refresher{
		Cron:      cron.New(),
		Facade:    f,
		Pruner:    p,
		Watchlist: watchlist,
		KeepStale: time.Hour,
		Ctx:       ctx,
	}
}

// Register schedules the warm task. spec uses the standard 5-field cron
// syntax, e.g. "*/4 9-15 * * 1-5" for trading hours.
func (r *Refresher) Register(spec string) error {
	_, err := r.Cron.AddFunc(spec, r.warmTask)
	return err
}

// Start starts the cron scheduler.
func (r *Refresher) Start() {
	r.Cron.Start()
	slog.Info("refresher started", "symbols", len(r.Watchlist))
}

// Stop stops the cron scheduler gracefully.
func (r *Refresher) Stop() {
	r.Cron.Stop()
	slog.Info("refresher stopped")
}

// RunNow executes the warm task immediately (manual trigger).
func (r *Refresher) RunNow() {
	r.warmTask()
}

func (r *Refresher) warmTask() {
	for _, symbol := range r.Watchlist {
		if r.Ctx.Err() != nil {
			return
		}
		if _, _, err := r.Facade.DailyBars(r.Ctx, symbol, marketdata.Range{}); err != nil {
			slog.Warn("warm daily bars failed", "symbol", symbol, "error", err)
		}
		if _, _, err := r.Facade.IntradayQuote(r.Ctx, symbol); err != nil {
			slog.Warn("warm quote failed", "symbol", symbol, "error", err)
		}
		if _, _, err := r.Facade.Fundamentals(r.Ctx, symbol); err != nil {
			slog.Warn("warm fundamentals failed", "symbol", symbol, "error", err)
		}
	}

	if r.Pruner != nil {
		if removed := r.Pruner.Prune(r.KeepStale); removed > 0 {
			slog.Debug("pruned expired cache entries", "removed", removed)
		}
	}
}
