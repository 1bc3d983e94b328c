package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/clcc2019/stock-intraday-trading/internal/cache"
	"github.com/clcc2019/stock-intraday-trading/internal/config"
	"github.com/clcc2019/stock-intraday-trading/internal/facade"
	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/orchestrator"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
	"github.com/clcc2019/stock-intraday-trading/internal/provider/eastmoney"
	"github.com/clcc2019/stock-intraday-trading/internal/provider/tencent"
	"github.com/clcc2019/stock-intraday-trading/internal/provider/tushare"
	"github.com/clcc2019/stock-intraday-trading/internal/ratelimit"
	"github.com/clcc2019/stock-intraday-trading/internal/refresh"
	"github.com/clcc2019/stock-intraday-trading/internal/registry"
)

// Conservative per-provider request rates used when the config leaves them
// unset. Tushare's free tier is the tightest.
var defaultRates = map[string]float64{
	"tushare":   0.8,
	"eastmoney": 5,
	"tencent":   5,
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Create provider clients and registry entries in the configured
	// failover order
	limiter := ratelimit.New()
	var entries []registry.Entry

	for priority, name := range cfg.ProviderPriority {
		var client provider.Client
		switch name {
		case "tushare":
			client = tushare.New(cfg.TushareToken, cfg.TushareBaseURL)
		case "eastmoney":
			client = eastmoney.New(cfg.EastmoneyBaseURL)
		case "tencent":
			client = tencent.New(cfg.TencentBaseURL)
		default:
			log.Fatalf("Unknown provider %q in provider_priority", name)
		}

		pc := cfg.ProviderFor(name)
		rps := pc.RequestsPerSecond
		if rps <= 0 {
			rps = defaultRates[name]
		}
		limiter.Set(name, rps, pc.Burst)

		entries = append(entries, registry.Entry{
			Descriptor: provider.Descriptor{
				Name:       name,
				Priority:   priority,
				Kinds:      client.Kinds(),
				Timeout:    pc.Timeout,
				MaxRetries: pc.MaxRetries,
			},
			Client: client,
		})
	}

	reg, err := registry.New(entries)
	if err != nil {
		log.Fatalf("Failed to build provider registry: %v", err)
	}

	orch := orchestrator.New(reg, limiter, cfg.MaxConcurrentFetches)
	store := cache.New(cache.Config{ServeStaleOnFailure: cfg.ServeStaleOnFailure})
	data := facade.New(store, orch, facade.TTLTable{
		marketdata.KindDailyBars:         cfg.TTLDailyBars,
		marketdata.KindWeeklyBars:        cfg.TTLWeeklyBars,
		marketdata.KindFundamentals:      cfg.TTLFundamentals,
		marketdata.KindIntradayQuote:     cfg.TTLIntradayQuote,
		marketdata.KindOrderBookSnapshot: cfg.TTLOrderBook,
		marketdata.KindMoneyFlow:         cfg.TTLMoneyFlow,
	})

	// Keep the watchlist warm during market hours when a schedule is set
	if cfg.RefreshCron != "" && len(cfg.Watchlist) > 0 {
		refresher := refresh.NewRefresher(ctx, data, store, cfg.Watchlist)
		if err := refresher.Register(cfg.RefreshCron); err != nil {
			log.Fatalf("Failed to register refresh schedule: %v", err)
		}
		refresher.Start()
		defer refresher.Stop()
	}

	// Add timeout to prevent hanging indefinitely
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 60*time.Second)
	defer fetchCancel()

	// Fetch the watchlist concurrently
	fmt.Println("Fetching market data for watchlist...")
	fmt.Println("================================================")
	fetchWatchlist(fetchCtx, data, cfg.Watchlist)
	fmt.Println("================================================")
	fmt.Println("All fetches completed!")
}

// report is one per-symbol outcome sent from worker goroutines.
type report struct {
	symbol string
	bars   []marketdata.Bar
	quote  *marketdata.Quote
	stale  bool
	err    error
}

// fetchWatchlist pulls daily bars and a realtime quote for every symbol
// concurrently and prints results as they arrive. A failed symbol is
// reported and skipped, never guessed at.
func fetchWatchlist(ctx context.Context, data *facade.Facade, symbols []string) {
	if len(symbols) == 0 {
		fmt.Println("watchlist is empty, nothing to fetch")
		return
	}

	resultChan := make(chan report, len(symbols))
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			bars, staleBars, err := data.DailyBars(ctx, symbol, marketdata.Range{})
			if err != nil {
				resultChan <- report{symbol: symbol, err: err}
				return
			}
			quote, staleQuote, err := data.IntradayQuote(ctx, symbol)
			if err != nil {
				resultChan <- report{symbol: symbol, err: err}
				return
			}
			resultChan <- report{
				symbol: symbol,
				bars:   bars,
				quote:  quote,
				stale:  staleBars || staleQuote,
			}
		}(symbol)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for r := range resultChan {
		if r.err != nil {
			fmt.Printf("%s: ERROR - %v\n", r.symbol, r.err)
			continue
		}
		mark := ""
		if r.stale {
			mark = " (stale)"
		}
		last := r.bars[len(r.bars)-1]
		fmt.Printf("%s %s: ¥%.2f (last close ¥%.2f, %d bars)%s\n",
			r.symbol, r.quote.Name, r.quote.Price, last.Close, len(r.bars), mark)
	}
}
