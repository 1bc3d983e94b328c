package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
)

type fakeFacade struct {
	mu       sync.Mutex
	barCalls []string
	failFor  map[string]bool
}

func (f *fakeFacade) DailyBars(ctx context.Context, symbol string, rng marketdata.Range) ([]marketdata.Bar, bool, error) {
	f.mu.Lock()
	f.barCalls = append(f.barCalls, symbol)
	f.mu.Unlock()
	if f.failFor[symbol] {
		return nil, false, errors.New("all providers failed")
	}
	return []marketdata.Bar{{Date: "20250103"}}, false, nil
}

func (f *fakeFacade) IntradayQuote(ctx context.Context, symbol string) (*marketdata.Quote, bool, error) {
	return &marketdata.Quote{Symbol: symbol}, false, nil
}

func (f *fakeFacade) Fundamentals(ctx context.Context, symbol string) (*marketdata.Fundamentals, bool, error) {
	return &marketdata.Fundamentals{Symbol: symbol}, false, nil
}

type fakePruner struct {
	calls int
}

func (p *fakePruner) Prune(keepStale time.Duration) int {
	p.calls++
	return 0
}

func TestRunNow_WarmsEverySymbol(t *testing.T) {
	facade := &fakeFacade{}
	pruner := &fakePruner{}
	r := NewRefresher(context.Background(), facade, pruner, []string{"600519", "000001", "300750"})

	r.RunNow()

	if len(facade.barCalls) != 3 {
		t.Fatalf("warmed %d symbols, want 3", len(facade.barCalls))
	}
	if pruner.calls != 1 {
		t.Errorf("Prune called %d times, want 1", pruner.calls)
	}
}

func TestRunNow_FailureDoesNotAbortBatch(t *testing.T) {
	facade := &fakeFacade{failFor: map[string]bool{"600519": true}}
	r := NewRefresher(context.Background(), facade, nil, []string{"600519", "000001"})

	r.RunNow()

	if len(facade.barCalls) != 2 {
		t.Errorf("warmed %d symbols, want 2 (failures must not abort the batch)", len(facade.barCalls))
	}
}

func TestRunNow_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	facade := &fakeFacade{}
	r := NewRefresher(ctx, facade, nil, []string{"600519", "000001"})

	r.RunNow()

	if len(facade.barCalls) != 0 {
		t.Errorf("warmed %d symbols after cancellation, want 0", len(facade.barCalls))
	}
}

func TestRegister_InvalidSpec(t *testing.T) {
	r := NewRefresher(context.Background(), &fakeFacade{}, nil, nil)

	if err := r.Register("not a cron spec"); err == nil {
		t.Fatal("Register() expected error for invalid spec, got nil")
	}
	if err := r.Register("*/4 9-15 * * 1-5"); err != nil {
		t.Errorf("Register() returned error for valid spec: %v", err)
	}
}
