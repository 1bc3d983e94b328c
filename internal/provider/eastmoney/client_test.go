package eastmoney

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
)

func TestSecid(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"600519", "1.600519"},
		{"000001", "0.000001"},
		{"300750", "0.300750"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			if got := secid(tt.symbol); got != tt.want {
				t.Errorf("secid(%q) = %q, want %q", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestFetch_DailyBars(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/qt/stock/kline/get" {
			t.Errorf("path = %q, want /api/qt/stock/kline/get", r.URL.Path)
		}
		if r.URL.Query().Get("klt") != "101" {
			t.Errorf("klt = %q, want 101", r.URL.Query().Get("klt"))
		}
		if r.URL.Query().Get("secid") != "1.600519" {
			t.Errorf("secid = %q, want 1.600519", r.URL.Query().Get("secid"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"klines": [
					"2025-01-02,1700.00,1709.50,1716.00,1698.00,31000,5200000.00,0.56,1.2",
					"2025-01-03,1712.00,1715.50,1720.00,1705.00,28000,4800000.00,0.35,1.1"
				]
			}
		}`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := New(server.URL)
	payload, err := client.Fetch(context.Background(), provider.Request{
		Symbol: "600519",
		Kind:   marketdata.KindDailyBars,
	})
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}

	bars := payload.([]marketdata.Bar)
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Date != "2025-01-02" {
		t.Errorf("first date = %q, want 2025-01-02", bars[0].Date)
	}
	if bars[1].Close != 1715.5 {
		t.Errorf("last close = %v, want 1715.5", bars[1].Close)
	}
	if bars[1].Turnover != 1.1 {
		t.Errorf("last turnover = %v, want 1.1", bars[1].Turnover)
	}
}

func TestFetch_Quote(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/qt/stock/get" {
			t.Errorf("path = %q, want /api/qt/stock/get", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		// Prices scaled by 100.
		w.Write([]byte(`{
			"data": {
				"f43": 171550, "f44": 172000, "f45": 170500, "f46": 171200,
				"f47": 28000, "f48": 4800000.0,
				"f57": "600519", "f58": "GZMT", "f60": 170950, "f86": 1767420000
			}
		}`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := New(server.URL)
	payload, err := client.Fetch(context.Background(), provider.Request{
		Symbol: "600519",
		Kind:   marketdata.KindIntradayQuote,
	})
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}

	quote := payload.(*marketdata.Quote)
	if quote.Price != 1715.5 {
		t.Errorf("price = %v, want 1715.5", quote.Price)
	}
	if quote.PrevClose != 1709.5 {
		t.Errorf("prev close = %v, want 1709.5", quote.PrevClose)
	}
	if quote.Volume != 28000 {
		t.Errorf("volume = %v, want 28000", quote.Volume)
	}
}

func TestFetch_OrderBook(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"f57": "600519", "f86": 1767420000,
				"f19": 171540, "f20": 12, "f17": 171530, "f18": 8,
				"f15": 171520, "f16": 5, "f13": 171510, "f14": 3,
				"f11": 171500, "f12": 20,
				"f39": 171560, "f40": 7, "f37": 171570, "f38": 11,
				"f35": 171580, "f36": 4, "f33": 171590, "f34": 9,
				"f31": 171600, "f32": 15
			}
		}`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := New(server.URL)
	payload, err := client.Fetch(context.Background(), provider.Request{
		Symbol: "600519",
		Kind:   marketdata.KindOrderBookSnapshot,
	})
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}

	book := payload.(*marketdata.OrderBook)
	if len(book.Bids) != 5 || len(book.Asks) != 5 {
		t.Fatalf("depth = %d bids / %d asks, want 5/5", len(book.Bids), len(book.Asks))
	}
	if book.Bids[0].Price != 1715.4 || book.Bids[0].Volume != 12 {
		t.Errorf("best bid = %+v, want {1715.4 12}", book.Bids[0])
	}
	if book.Asks[0].Price != 1715.6 || book.Asks[0].Volume != 7 {
		t.Errorf("best ask = %+v, want {1715.6 7}", book.Asks[0])
	}
}

func TestFetch_MoneyFlow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/qt/stock/fflow/daykline/get" {
			t.Errorf("path = %q, want /api/qt/stock/fflow/daykline/get", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"klines": [
					"2025-01-02,-1000000.0,300000.0,200000.0,-600000.0,-400000.0,-1.8",
					"2025-01-03,2500000.0,-500000.0,-300000.0,1200000.0,1300000.0,4.2"
				]
			}
		}`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := New(server.URL)
	payload, err := client.Fetch(context.Background(), provider.Request{
		Symbol: "600519",
		Kind:   marketdata.KindMoneyFlow,
	})
	if err != nil {
		t.Fatalf("Fetch() returned error: %v", err)
	}

	flow := payload.(*marketdata.MoneyFlow)
	if flow.Date != "2025-01-03" {
		t.Errorf("date = %q, want the latest session 2025-01-03", flow.Date)
	}
	if flow.MainNetInflow != 2500000.0 {
		t.Errorf("main net inflow = %v, want 2500000.0", flow.MainNetInflow)
	}
	if flow.MainNetPct != 4.2 {
		t.Errorf("main net pct = %v, want 4.2", flow.MainNetPct)
	}
}

func TestFetch_NullData(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": null}`))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	client := New(server.URL)
	for _, kind := range []marketdata.Kind{marketdata.KindDailyBars, marketdata.KindIntradayQuote, marketdata.KindMoneyFlow} {
		_, err := client.Fetch(context.Background(), provider.Request{Symbol: "600519", Kind: kind})

		var fe *provider.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("kind %s: error type = %T, want *provider.FetchError", kind, err)
		}
		if fe.Reason != provider.ReasonNotFound {
			t.Errorf("kind %s: reason = %q, want %q", kind, fe.Reason, provider.ReasonNotFound)
		}
	}
}

func TestParseKline_Malformed(t *testing.T) {
	_, err := parseKline("2025-01-02,1700.00")
	var fe *provider.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *provider.FetchError", err)
	}
	if fe.Reason != provider.ReasonMalformed {
		t.Errorf("reason = %q, want %q", fe.Reason, provider.ReasonMalformed)
	}
}
