package eastmoney

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"resty.dev/v3"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
)

// Client fetches data from the Eastmoney push2 API. It is the broadest
// provider and serves every kind, so it works as the fallback of last
// resort for bars and fundamentals and as a primary for realtime kinds.
type Client struct {
	client *resty.Client
}

// New creates an Eastmoney client. baseURL is the push2 root, e.g.
// "https://push2.eastmoney.com".
func New(baseURL string) *Client {
	return &Client{client: provider.NewHTTPClient(baseURL)}
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "eastmoney" }

// Kinds returns the data kinds Eastmoney serves.
func (c *Client) Kinds() []marketdata.Kind {
	return marketdata.Kinds()
}

// Fetch retrieves the requested data kind.
func (c *Client) Fetch(ctx context.Context, req provider.Request) (any, error) {
	switch req.Kind {
	case marketdata.KindDailyBars:
		return c.fetchBars(ctx, req, "101")
	case marketdata.KindWeeklyBars:
		return c.fetchBars(ctx, req, "102")
	case marketdata.KindIntradayQuote:
		return c.fetchQuote(ctx, req.Symbol)
	case marketdata.KindOrderBookSnapshot:
		return c.fetchOrderBook(ctx, req.Symbol)
	case marketdata.KindFundamentals:
		return c.fetchFundamentals(ctx, req.Symbol)
	case marketdata.KindMoneyFlow:
		return c.fetchMoneyFlow(ctx, req.Symbol)
	default:
		return nil, provider.NewNotFoundError(fmt.Sprintf("eastmoney does not serve kind %q", req.Kind))
	}
}

// secid converts a 6-digit code to push2's "1.600519" (sh) / "0.000001"
// (sz) form.
func secid(symbol string) string {
	if marketdata.Exchange(symbol) == "sz" {
		return "0." + symbol
	}
	return "1." + symbol
}

type klineResponse struct {
	Data *struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

func (c *Client) fetchBars(ctx context.Context, req provider.Request, klt string) (any, error) {
	params := map[string]string{
		"secid":   secid(req.Symbol),
		"klt":     klt,
		"fqt":     "1", // forward-adjusted, matching the analysis scripts
		"fields1": "f1,f2,f3",
		"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f61",
		"beg":     "0",
		"end":     "20500101",
	}
	if req.Range.Start != "" {
		params["beg"] = req.Range.Start
	}
	if req.Range.End != "" {
		params["end"] = req.Range.End
	}

	var result klineResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		Get("/api/qt/stock/kline/get")
	if err != nil {
		return nil, provider.Classify(err)
	}
	if !resp.IsSuccess() {
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode())
	}
	if result.Data == nil || len(result.Data.Klines) == 0 {
		return nil, provider.NewNotFoundError(fmt.Sprintf("no bars for %s", req.Symbol))
	}

	bars := make([]marketdata.Bar, 0, len(result.Data.Klines))
	for _, line := range result.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKline decodes one comma-separated kline row. With the fields2 set
// above the layout is: date,open,close,high,low,volume,amount,pct_chg,turnover.
func parseKline(line string) (marketdata.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 9 {
		return marketdata.Bar{}, provider.NewMalformedError(
			fmt.Sprintf("kline row has %d fields, want 9", len(parts)), nil)
	}
	vol, _ := strconv.ParseInt(parts[5], 10, 64)
	return marketdata.Bar{
		Date:      parts[0],
		Open:      pf(parts[1]),
		Close:     pf(parts[2]),
		High:      pf(parts[3]),
		Low:       pf(parts[4]),
		Volume:    vol,
		Amount:    pf(parts[6]),
		PctChange: pf(parts[7]),
		Turnover:  pf(parts[8]),
	}, nil
}

// snapshot holds the push2 stock/get f-fields we consume. Prices come
// scaled by 100.
type snapshot struct {
	Price     float64 `json:"f43"`
	High      float64 `json:"f44"`
	Low       float64 `json:"f45"`
	Open      float64 `json:"f46"`
	Volume    int64   `json:"f47"`
	Amount    float64 `json:"f48"`
	Code      string  `json:"f57"`
	Name      string  `json:"f58"`
	PrevClose float64 `json:"f60"`
	MarketCap float64 `json:"f116"`
	PE        float64 `json:"f162"`
	PB        float64 `json:"f167"`
	Time      int64   `json:"f86"`

	// Five bid levels, best first.
	Buy1P float64 `json:"f19"`
	Buy1V int64   `json:"f20"`
	Buy2P float64 `json:"f17"`
	Buy2V int64   `json:"f18"`
	Buy3P float64 `json:"f15"`
	Buy3V int64   `json:"f16"`
	Buy4P float64 `json:"f13"`
	Buy4V int64   `json:"f14"`
	Buy5P float64 `json:"f11"`
	Buy5V int64   `json:"f12"`

	// Five ask levels, best first.
	Sell1P float64 `json:"f39"`
	Sell1V int64   `json:"f40"`
	Sell2P float64 `json:"f37"`
	Sell2V int64   `json:"f38"`
	Sell3P float64 `json:"f35"`
	Sell3V int64   `json:"f36"`
	Sell4P float64 `json:"f33"`
	Sell4V int64   `json:"f34"`
	Sell5P float64 `json:"f31"`
	Sell5V int64   `json:"f32"`
}

type snapshotResponse struct {
	Data *snapshot `json:"data"`
}

func (c *Client) fetchSnapshot(ctx context.Context, symbol, fields string) (*snapshot, error) {
	var result snapshotResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"secid":  secid(symbol),
			"fields": fields,
		}).
		SetResult(&result).
		Get("/api/qt/stock/get")
	if err != nil {
		return nil, provider.Classify(err)
	}
	if !resp.IsSuccess() {
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode())
	}
	if result.Data == nil {
		return nil, provider.NewNotFoundError(fmt.Sprintf("no snapshot for %s", symbol))
	}
	return result.Data, nil
}

func (c *Client) fetchQuote(ctx context.Context, symbol string) (any, error) {
	s, err := c.fetchSnapshot(ctx, symbol, "f43,f44,f45,f46,f47,f48,f57,f58,f60,f86")
	if err != nil {
		return nil, err
	}
	return &marketdata.Quote{
		Symbol:    symbol,
		Name:      s.Name,
		Price:     s.Price / 100,
		Open:      s.Open / 100,
		High:      s.High / 100,
		Low:       s.Low / 100,
		PrevClose: s.PrevClose / 100,
		Volume:    s.Volume,
		Amount:    s.Amount,
		Time:      strconv.FormatInt(s.Time, 10),
	}, nil
}

func (c *Client) fetchOrderBook(ctx context.Context, symbol string) (any, error) {
	s, err := c.fetchSnapshot(ctx, symbol,
		"f57,f86,f11,f12,f13,f14,f15,f16,f17,f18,f19,f20,f31,f32,f33,f34,f35,f36,f37,f38,f39,f40")
	if err != nil {
		return nil, err
	}
	return &marketdata.OrderBook{
		Symbol: symbol,
		Bids: []marketdata.Level{
			{Price: s.Buy1P / 100, Volume: s.Buy1V},
			{Price: s.Buy2P / 100, Volume: s.Buy2V},
			{Price: s.Buy3P / 100, Volume: s.Buy3V},
			{Price: s.Buy4P / 100, Volume: s.Buy4V},
			{Price: s.Buy5P / 100, Volume: s.Buy5V},
		},
		Asks: []marketdata.Level{
			{Price: s.Sell1P / 100, Volume: s.Sell1V},
			{Price: s.Sell2P / 100, Volume: s.Sell2V},
			{Price: s.Sell3P / 100, Volume: s.Sell3V},
			{Price: s.Sell4P / 100, Volume: s.Sell4V},
			{Price: s.Sell5P / 100, Volume: s.Sell5V},
		},
		Time: strconv.FormatInt(s.Time, 10),
	}, nil
}

func (c *Client) fetchFundamentals(ctx context.Context, symbol string) (any, error) {
	s, err := c.fetchSnapshot(ctx, symbol, "f57,f116,f162,f167")
	if err != nil {
		return nil, err
	}
	// push2 only carries valuation multiples; growth/profitability fields
	// stay zero and the higher-priority provider supplies them when up.
	return &marketdata.Fundamentals{
		Symbol:    symbol,
		PE:        s.PE / 100,
		PB:        s.PB / 100,
		MarketCap: s.MarketCap,
	}, nil
}

type fflowResponse struct {
	Data *struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

func (c *Client) fetchMoneyFlow(ctx context.Context, symbol string) (any, error) {
	var result fflowResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"secid":   secid(symbol),
			"lmt":     "0",
			"klt":     "101",
			"fields1": "f1,f2,f3,f7",
			"fields2": "f51,f52,f53,f54,f55,f56,f57",
		}).
		SetResult(&result).
		Get("/api/qt/stock/fflow/daykline/get")
	if err != nil {
		return nil, provider.Classify(err)
	}
	if !resp.IsSuccess() {
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode())
	}
	if result.Data == nil || len(result.Data.Klines) == 0 {
		return nil, provider.NewNotFoundError(fmt.Sprintf("no money flow for %s", symbol))
	}

	// Last row is the latest session:
	// date,main,small,medium,large,super,main_pct
	parts := strings.Split(result.Data.Klines[len(result.Data.Klines)-1], ",")
	if len(parts) < 7 {
		return nil, provider.NewMalformedError(
			fmt.Sprintf("fflow row has %d fields, want 7", len(parts)), nil)
	}
	return &marketdata.MoneyFlow{
		Symbol:          symbol,
		Date:            parts[0],
		MainNetInflow:   pf(parts[1]),
		SmallNetInflow:  pf(parts[2]),
		MediumNetInflow: pf(parts[3]),
		LargeNetInflow:  pf(parts[4]),
		SuperNetInflow:  pf(parts[5]),
		MainNetPct:      pf(parts[6]),
	}, nil
}

func pf(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
