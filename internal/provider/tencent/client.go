package tencent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"resty.dev/v3"

	"github.com/clcc2019/stock-intraday-trading/internal/marketdata"
	"github.com/clcc2019/stock-intraday-trading/internal/provider"
)

// Payload field positions in the "~"-delimited quote string. The endpoint
// returns v_sh600519="1~NAME~600519~PRICE~PREV~OPEN~VOL~...";
const (
	fieldName      = 1
	fieldPrice     = 3
	fieldPrevClose = 4
	fieldOpen      = 5
	fieldVolume    = 6
	fieldBidStart  = 9  // bid1 price, bid1 volume, ... bid5 volume (9..18)
	fieldAskStart  = 19 // ask1 price, ask1 volume, ... ask5 volume (19..28)
	fieldTime      = 30
	fieldHigh      = 33
	fieldLow       = 34
	fieldAmount    = 37
	minFields      = 38
)

// Client fetches realtime quotes and order-book depth from the Tencent
// quote endpoint (qt.gtimg.cn). The payload is GBK-encoded text, not JSON.
type Client struct {
	client *resty.Client
}

// New creates a Tencent client. baseURL is e.g. "https://qt.gtimg.cn".
func New(baseURL string) *Client {
	client := provider.NewHTTPClient(baseURL)
	client.SetHeader("Accept", "*/*")
	return &Client{client: client}
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "tencent" }

// Kinds returns the data kinds Tencent serves.
func (c *Client) Kinds() []marketdata.Kind {
	return []marketdata.Kind{
		marketdata.KindIntradayQuote,
		marketdata.KindOrderBookSnapshot,
	}
}

// Fetch retrieves the requested data kind.
func (c *Client) Fetch(ctx context.Context, req provider.Request) (any, error) {
	switch req.Kind {
	case marketdata.KindIntradayQuote, marketdata.KindOrderBookSnapshot:
	default:
		return nil, provider.NewNotFoundError(fmt.Sprintf("tencent does not serve kind %q", req.Kind))
	}

	fields, err := c.fetchFields(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	if req.Kind == marketdata.KindIntradayQuote {
		return parseQuote(req.Symbol, fields), nil
	}
	return parseOrderBook(req.Symbol, fields), nil
}

func (c *Client) fetchFields(ctx context.Context, symbol string) ([]string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("q", marketdata.Exchange(symbol)+symbol).
		Get("/")
	if err != nil {
		return nil, provider.Classify(err)
	}
	if !resp.IsSuccess() {
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode())
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(resp.Bytes())
	if err != nil {
		return nil, provider.NewMalformedError("quote payload is not valid GBK", err)
	}

	return splitPayload(symbol, string(decoded))
}

// splitPayload strips the v_shXXXXXX="..." wrapper and splits the field
// string. An empty or "none_match" body means the symbol is unknown.
func splitPayload(symbol, body string) ([]string, error) {
	body = strings.TrimSpace(body)
	if body == "" || strings.Contains(body, "none_match") {
		return nil, provider.NewNotFoundError(fmt.Sprintf("no quote for %s", symbol))
	}

	start := strings.Index(body, `"`)
	end := strings.LastIndex(body, `"`)
	if start < 0 || end <= start {
		return nil, provider.NewMalformedError("quote payload missing quoted body", nil)
	}

	fields := strings.Split(body[start+1:end], "~")
	if len(fields) < minFields {
		return nil, provider.NewMalformedError(
			fmt.Sprintf("quote payload has %d fields, want at least %d", len(fields), minFields), nil)
	}
	return fields, nil
}

func parseQuote(symbol string, f []string) *marketdata.Quote {
	return &marketdata.Quote{
		Symbol:    symbol,
		Name:      f[fieldName],
		Price:     pf(f[fieldPrice]),
		Open:      pf(f[fieldOpen]),
		High:      pf(f[fieldHigh]),
		Low:       pf(f[fieldLow]),
		PrevClose: pf(f[fieldPrevClose]),
		Volume:    pi(f[fieldVolume]),
		Amount:    pf(f[fieldAmount]),
		Time:      f[fieldTime],
	}
}

func parseOrderBook(symbol string, f []string) *marketdata.OrderBook {
	book := &marketdata.OrderBook{
		Symbol: symbol,
		Time:   f[fieldTime],
	}
	for i := 0; i < 5; i++ {
		book.Bids = append(book.Bids, marketdata.Level{
			Price:  pf(f[fieldBidStart+2*i]),
			Volume: pi(f[fieldBidStart+2*i+1]),
		})
		book.Asks = append(book.Asks, marketdata.Level{
			Price:  pf(f[fieldAskStart+2*i]),
			Volume: pi(f[fieldAskStart+2*i+1]),
		})
	}
	return book
}

func pf(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func pi(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
