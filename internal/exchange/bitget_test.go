package exchange

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FundingSentinel/internal/model"
)

func newTestClient(handler http.HandlerFunc) (*BitgetClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewBitgetClient(srv.URL, "key", "secret", "pass", 5, "")
	return c, srv
}

func TestSign_Deterministic(t *testing.T) {
	b := &BitgetClient{SecretKey: "secret"}
	one := b.sign("1700000000000", "GET", "/api/v2/mix/market/tickers", "productType=USDT-FUTURES", "")
	two := b.sign("1700000000000", "GET", "/api/v2/mix/market/tickers", "productType=USDT-FUTURES", "")
	if one != two {
		t.Errorf("signature must be deterministic: %q vs %q", one, two)
	}
	other := b.sign("1700000000001", "GET", "/api/v2/mix/market/tickers", "productType=USDT-FUTURES", "")
	if one == other {
		t.Error("different timestamps must produce different signatures")
	}
}

func TestListFundingRates(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/mix/market/tickers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("ACCESS-KEY") != "key" || r.Header.Get("ACCESS-SIGN") == "" {
			t.Error("missing auth headers")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": "00000",
			"data": []map[string]string{
				{"symbol": "BTCUSDT", "fundingRate": "0.0001"},
				{"symbol": "DOGEUSDT", "fundingRate": "-0.0075"},
				{"symbol": "NEWUSDT", "fundingRate": ""},
			},
		})
	})
	defer srv.Close()

	snaps, err := c.ListFundingRates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	// Ascending by rate, raw rate converted to percentage points.
	if snaps[0].Symbol != "DOGEUSDT" || math.Abs(snaps[0].FundingRatePercent-(-0.75)) > 1e-9 {
		t.Errorf("got %+v, want DOGEUSDT at -0.75", snaps[0])
	}
	if snaps[1].Symbol != "BTCUSDT" || math.Abs(snaps[1].FundingRatePercent-0.01) > 1e-9 {
		t.Errorf("got %+v, want BTCUSDT at 0.01", snaps[1])
	}
}

func TestGetCandles(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": "00000",
			"data": [][]string{
				// Out of order on purpose.
				{"1700000060000", "101", "102", "100", "101.5", "500", "50500"},
				{"1700000000000", "100", "101", "99", "101", "400", "40000"},
			},
		})
	})
	defer srv.Close()

	series, err := c.GetCandles(context.Background(), "BTCUSDT", Granularity1m, time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(series))
	}
	if !series[0].Time.Before(series[1].Time) {
		t.Error("candles must be sorted ascending")
	}
	if series[0].Open != 100 || series[0].Volume != 400 {
		t.Errorf("wrong first candle: %+v", series[0])
	}
}

func TestGetHistoricalFundingRates_NewestFirst(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": "00000",
			"data": []map[string]string{
				{"fundingRate": "0.001", "fundingTime": "1700000000000"},
				{"fundingRate": "0.002", "fundingTime": "1700028800000"},
			},
		})
	})
	defer srv.Close()

	points, err := c.GetHistoricalFundingRates(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[0].Time.After(points[1].Time) {
		t.Error("history must be ordered newest first")
	}
	if math.Abs(points[0].Rate-0.2) > 1e-9 {
		t.Errorf("rate should be in percentage points, got %v", points[0].Rate)
	}
}

func TestOpenOrder_Payload(t *testing.T) {
	var payload map[string]string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(map[string]any{"code": "00000", "data": map[string]string{}})
	})
	defer srv.Close()

	if err := c.OpenOrder(context.Background(), "DOGEUSDT", model.Short, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"symbol":    "DOGEUSDT",
		"side":      "sell",
		"tradeSide": "open",
		"orderType": "market",
		"leverage":  "5",
		"size":      "10",
	}
	for k, v := range want {
		if payload[k] != v {
			t.Errorf("payload[%s]: got %q, want %q", k, payload[k], v)
		}
	}
}

func TestDo_ErrorTaxonomy(t *testing.T) {
	// Exchange-level rejection.
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": "40001", "msg": "invalid signature"})
	})
	_, err := c.ListFundingRates(context.Background())
	srv.Close()
	if !IsExchange(err) {
		t.Errorf("expected an exchange error, got %v", err)
	}

	// Non-JSON gateway body.
	c, srv = newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	})
	_, err = c.ListFundingRates(context.Background())
	srv.Close()
	if !IsExchange(err) {
		t.Errorf("expected an exchange error for a text body, got %v", err)
	}

	// Transport failure: the server is gone.
	c, srv = newTestClient(func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()
	_, err = c.ListFundingRates(context.Background())
	if !IsNetwork(err) {
		t.Errorf("expected a network error, got %v", err)
	}
}
