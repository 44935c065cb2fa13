package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"FundingSentinel/internal/model"
)

const defaultBaseURL = "https://api.bitget.com"

// BitgetClient implements Client against the Bitget USDT-futures API.
type BitgetClient struct {
	BaseURL    string
	APIKey     string
	SecretKey  string
	Passphrase string
	Leverage   int
	Client     *http.Client
}

// NewBitgetClient creates a signed Bitget client with optional proxy support.
func NewBitgetClient(baseURL, apiKey, secretKey, passphrase string, leverage int, proxyURL string) *BitgetClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BitgetClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		SecretKey:  secretKey,
		Passphrase: passphrase,
		Leverage:   leverage,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (b *BitgetClient) Name() string { return "bitget" }

func (b *BitgetClient) sign(timestamp, method, requestPath, query, body string) string {
	prehash := timestamp + method + requestPath
	if query != "" {
		prehash += "?" + query
	}
	prehash += body
	mac := hmac.New(sha256.New, []byte(b.SecretKey))
	mac.Write([]byte(prehash))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (b *BitgetClient) headers(method, requestPath, query, body string) http.Header {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("ACCESS-KEY", b.APIKey)
	h.Set("ACCESS-SIGN", b.sign(timestamp, method, requestPath, query, body))
	h.Set("ACCESS-PASSPHRASE", b.Passphrase)
	h.Set("ACCESS-TIMESTAMP", timestamp)
	h.Set("locale", "en-US")
	return h
}

// bitgetEnvelope is the standard Bitget response wrapper.
type bitgetEnvelope struct {
	Code    string          `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
	ReqTime int64           `json:"requestTime"`
}

// do performs a signed request and unwraps the Bitget envelope. Error
// bodies may be JSON or plain text; both are mapped to *ExchangeError.
func (b *BitgetClient) do(ctx context.Context, op, method, requestPath, query string, payload any) (json.RawMessage, error) {
	var body string
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", op, err)
		}
		body = string(raw)
		reader = bytes.NewReader(raw)
	}

	u := b.BaseURL + requestPath
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header = b.headers(method, requestPath, query, body)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var env bitgetEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Plain-text error body (gateway errors etc.).
		return nil, &ExchangeError{Op: op, Status: resp.StatusCode, Message: string(raw)}
	}
	if resp.StatusCode != http.StatusOK || (env.Code != "" && env.Code != "00000") {
		return nil, &ExchangeError{Op: op, Status: resp.StatusCode, Code: env.Code, Message: env.Msg}
	}
	return env.Data, nil
}

func (b *BitgetClient) ListFundingRates(ctx context.Context) ([]model.FundingSnapshot, error) {
	data, err := b.do(ctx, "list funding rates", http.MethodGet,
		"/api/v2/mix/market/tickers", "productType=USDT-FUTURES", nil)
	if err != nil {
		return nil, err
	}

	var tickers []struct {
		Symbol      string `json:"symbol"`
		FundingRate string `json:"fundingRate"`
	}
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, fmt.Errorf("decode tickers: %w", err)
	}

	now := time.Now()
	snapshots := make([]model.FundingSnapshot, 0, len(tickers))
	for _, t := range tickers {
		rate, err := strconv.ParseFloat(t.FundingRate, 64)
		if err != nil {
			continue // symbols without a funding rate
		}
		snapshots = append(snapshots, model.FundingSnapshot{
			Symbol:             t.Symbol,
			FundingRatePercent: rate * 100,
			ObservedAt:         now,
		})
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].FundingRatePercent < snapshots[j].FundingRatePercent
	})
	return snapshots, nil
}

func (b *BitgetClient) GetCandles(ctx context.Context, symbol string, granularity Granularity, start, end time.Time, limit int) (model.Series, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("productType", "USDT-FUTURES")
	params.Set("granularity", string(granularity))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if !start.IsZero() {
		params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if !end.IsZero() {
		params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	}

	data, err := b.do(ctx, "get candles", http.MethodGet,
		"/api/v2/mix/market/candles", params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	// Each row: [ts(ms), open, high, low, close, baseVolume, quoteVolume]
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	series := make(model.Series, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}
		series = append(series, model.Candle{
			Time:   time.UnixMilli(ts).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	return series, nil
}

func (b *BitgetClient) GetHistoricalFundingRates(ctx context.Context, symbol string) ([]model.FundingRatePoint, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("productType", "USDT-FUTURES")

	data, err := b.do(ctx, "get funding history", http.MethodGet,
		"/api/v2/mix/market/history-fund-rate", params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		FundingRate string `json:"fundingRate"`
		FundingTime string `json:"fundingTime"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode funding history: %w", err)
	}

	points := make([]model.FundingRatePoint, 0, len(rows))
	for _, row := range rows {
		rate, err := strconv.ParseFloat(row.FundingRate, 64)
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(row.FundingTime, 10, 64)
		if err != nil {
			continue
		}
		points = append(points, model.FundingRatePoint{
			Rate: rate * 100,
			Time: time.UnixMilli(ts).UTC(),
		})
	}
	// Newest first.
	sort.Slice(points, func(i, j int) bool { return points[i].Time.After(points[j].Time) })
	return points, nil
}

func (b *BitgetClient) OpenOrder(ctx context.Context, symbol string, side model.Side, amountUSDT float64) error {
	orderSide := "buy"
	if side == model.Short {
		orderSide = "sell"
	}
	payload := map[string]string{
		"symbol":      symbol,
		"productType": "USDT-FUTURES",
		"marginMode":  "crossed",
		"marginCoin":  "USDT",
		"size":        strconv.FormatFloat(amountUSDT, 'f', -1, 64),
		"side":        orderSide,
		"tradeSide":   "open",
		"orderType":   "market",
		"leverage":    strconv.Itoa(b.Leverage),
	}
	_, err := b.do(ctx, "open order", http.MethodPost, "/api/v2/mix/order/place-order", "", payload)
	return err
}

func (b *BitgetClient) CloseOrder(ctx context.Context, symbol string) error {
	payload := map[string]string{
		"symbol":      symbol,
		"productType": "USDT-FUTURES",
	}
	_, err := b.do(ctx, "close order", http.MethodPost, "/api/v2/mix/order/close-positions", "", payload)
	return err
}

func (b *BitgetClient) GetLastClosedPosition(ctx context.Context, symbol string) (*model.PnLRecord, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("productType", "USDT-FUTURES")
	params.Set("limit", "1")

	data, err := b.do(ctx, "get position history", http.MethodGet,
		"/api/v2/mix/position/history-position", params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		List []struct {
			PositionID    string `json:"positionId"`
			Symbol        string `json:"symbol"`
			HoldSide      string `json:"holdSide"`
			OpenAvgPrice  string `json:"openAvgPrice"`
			CloseAvgPrice string `json:"closeAvgPrice"`
			PnL           string `json:"pnl"`
			NetProfit     string `json:"netProfit"`
			OpenFee       string `json:"openFee"`
			CloseFee      string `json:"closeFee"`
			UTime         string `json:"utime"`
		} `json:"list"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode position history: %w", err)
	}
	if len(wrapper.List) == 0 {
		return nil, &ExchangeError{Op: "get position history", Message: "no closed positions for " + symbol}
	}

	p := wrapper.List[0]
	side := model.Long
	if p.HoldSide == "short" {
		side = model.Short
	}
	rec := &model.PnLRecord{
		PositionID: p.PositionID,
		Symbol:     p.Symbol,
		Side:       side,
		PnL:        parseFloat(p.PnL),
		EntryPrice: parseFloat(p.OpenAvgPrice),
		ClosePrice: parseFloat(p.CloseAvgPrice),
		OpenFee:    parseFloat(p.OpenFee),
		CloseFee:   parseFloat(p.CloseFee),
		NetProfit:  parseFloat(p.NetProfit),
	}
	if ts, err := strconv.ParseInt(p.UTime, 10, 64); err == nil {
		rec.ClosedAt = time.UnixMilli(ts).UTC()
	}
	return rec, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
