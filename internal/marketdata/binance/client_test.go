package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClient_BestPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("expected symbol=BTCUSDT, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"BTCUSDT","bidPrice":"50123.45000000","askPrice":"50124.00000000"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))

	price, err := client.BestPrice(context.Background(), "btc")
	if err != nil {
		t.Fatalf("BestPrice: %v", err)
	}
	if !price.Equal(decimal.NewFromFloat(50123.45)) {
		t.Errorf("expected best bid 50123.45, got %v", price)
	}
}

func TestClient_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","bidPrice":"3000","askPrice":"3001"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))

	price, err := client.BestPrice(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("BestPrice: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
	if !price.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("price mismatch: %v", price)
	}
}

func TestClient_UnknownPairFailsFast(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithRetryDelay(time.Millisecond))

	_, err := client.BestPrice(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("expected error for unknown pair")
	}
	if calls.Load() != 1 {
		t.Errorf("invalid symbol must not retry, got %d calls", calls.Load())
	}
}
