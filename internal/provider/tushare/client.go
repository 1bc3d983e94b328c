package tushare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
)

// Tushare error codes we care about. 40203 is the points/frequency limit.
const codeRateLimited = 40203

// defaultLookbackDays matches the analysis scripts' expectation of roughly
// 400 calendar days of history when no explicit range is given.
const defaultLookbackDays = 400

// apiResponse is the envelope every Tushare Pro call returns.
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Fields []string `json:"fields"`
		Items  [][]any  `json:"items"`
	} `json:"data"`
}

// Client fetches historical bars and fundamentals from the Tushare Pro API.
type Client struct {
	token  string
	client *resty.Client
	now    func() time.Time
}

// New creates a Tushare client. baseURL is the API root, e.g.
// "https://api.tushare.pro".
func New(token, baseURL string) *Client {
	client := provider.NewHTTPClient(baseURL)

	return &Client{
		token:  token,
		client: client,
		now:    time.Now,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "tushare" }

// Kinds returns the data kinds Tushare serves.
func (c *Client) Kinds() []marketdata.Kind {
	return []marketdata.Kind{
		marketdata.KindDailyBars,
		marketdata.KindWeeklyBars,
		marketdata.KindFundamentals,
	}
}

// Fetch retrieves the requested data kind.
func (c *Client) Fetch(ctx context.Context, req provider.Request) (any, error) {
	switch req.Kind {
	case marketdata.KindDailyBars:
		return c.fetchBars(ctx, "daily", req)
	case marketdata.KindWeeklyBars:
		return c.fetchBars(ctx, "weekly", req)
	case marketdata.KindFundamentals:
		return c.fetchFundamentals(ctx, req.Symbol)
	default:
		return nil, provider.NewNotFoundError(fmt.Sprintf("tushare does not serve kind %q", req.Kind))
	}
}

// tsCode converts a 6-digit code to Tushare's "600519.SH" form.
func tsCode(symbol string) string {
	return symbol + "." + strings.ToUpper(marketdata.Exchange(symbol))
}

// call issues one Tushare Pro API request and returns the decoded envelope.
func (c *Client) call(ctx context.Context, apiName string, params map[string]string, fields string) (*apiResponse, error) {
	var result apiResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"api_name": apiName,
			"token":    c.token,
			"params":   params,
			"fields":   fields,
		}).
		SetResult(&result).
		Post("")

	if err != nil {
		return nil, provider.Classify(err)
	}

	if !resp.IsSuccess() {
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode())
	}

	switch {
	case result.Code == 0:
		return &result, nil
	case result.Code == codeRateLimited:
		fe := provider.NewRateLimitError(0)
		fe.Message = result.Msg
		return nil, fe
	default:
		return nil, &provider.FetchError{
			Reason:    provider.ReasonUnavailable,
			Retryable: true,
			Message:   fmt.Sprintf("tushare api error %d: %s", result.Code, result.Msg),
		}
	}
}

func (c *Client) fetchBars(ctx context.Context, apiName string, req provider.Request) (any, error) {
	r := req.Range
	if r.End == "" {
		r.End = c.now().Format("20060102")
	}
	if r.Start == "" {
		r.Start = c.now().AddDate(0, 0, -defaultLookbackDays).Format("20060102")
	}

	result, err := c.call(ctx, apiName, map[string]string{
		"ts_code":    tsCode(req.Symbol),
		"start_date": r.Start,
		"end_date":   r.End,
	}, "trade_date,open,high,low,close,vol,amount,pct_chg")
	if err != nil {
		return nil, err
	}

	if len(result.Data.Items) == 0 {
		return nil, provider.NewNotFoundError(fmt.Sprintf("no bars for %s", req.Symbol))
	}

	// Tushare returns newest-first; consumers expect chronological order.
	items := result.Data.Items
	bars := make([]marketdata.Bar, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		row := items[i]
		if len(row) < 8 {
			return nil, provider.NewMalformedError("short bar row in tushare response", nil)
		}
		bars = append(bars, marketdata.Bar{
			Date:      str(row[0]),
			Open:      f64(row[1]),
			High:      f64(row[2]),
			Low:       f64(row[3]),
			Close:     f64(row[4]),
			Volume:    int64(f64(row[5])),
			Amount:    f64(row[6]),
			PctChange: f64(row[7]),
		})
	}
	return bars, nil
}

// fetchFundamentals combines the daily_basic valuation snapshot with the
// latest fina_indicator row into one Fundamentals record.
func (c *Client) fetchFundamentals(ctx context.Context, symbol string) (any, error) {
	basic, err := c.call(ctx, "daily_basic", map[string]string{
		"ts_code": tsCode(symbol),
	}, "trade_date,pe,pb,total_mv")
	if err != nil {
		return nil, err
	}
	if len(basic.Data.Items) == 0 {
		return nil, provider.NewNotFoundError(fmt.Sprintf("no valuation data for %s", symbol))
	}

	fund := &marketdata.Fundamentals{Symbol: symbol}
	row := basic.Data.Items[0]
	if len(row) < 4 {
		return nil, provider.NewMalformedError("short daily_basic row in tushare response", nil)
	}
	fund.PE = f64(row[1])
	fund.PB = f64(row[2])
	fund.MarketCap = f64(row[3])

	indicator, err := c.call(ctx, "fina_indicator", map[string]string{
		"ts_code": tsCode(symbol),
	}, "end_date,roe,eps,bps,or_yoy,netprofit_yoy")
	if err != nil {
		return nil, err
	}
	if len(indicator.Data.Items) > 0 {
		row := indicator.Data.Items[0]
		if len(row) < 6 {
			return nil, provider.NewMalformedError("short fina_indicator row in tushare response", nil)
		}
		fund.ROE = f64(row[1])
		fund.EPS = f64(row[2])
		fund.BVPS = f64(row[3])
		fund.RevenueYoY = f64(row[4])
		fund.ProfitYoY = f64(row[5])
	}

	return fund, nil
}

// f64 coerces a JSON item cell to float64. Tushare mixes numbers and nulls.
func f64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		var f float64
		fmt.Sscanf(x, "%f", &f)
		return f
	default:
		return 0
	}
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
