package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"main/internal/exchange"
	"main/internal/model/enum"
	"main/internal/order"
)

func testOrder(t *testing.T) *order.Order {
	t.Helper()
	ord, err := order.IfDone("USDJPY",
		order.Leg{Side: enum.OrderSideBuy, Kind: enum.LegKindMarket, Size: decimal.NewFromInt(1)},
		order.Leg{Side: enum.OrderSideSell, Kind: enum.LegKindLimit, Size: decimal.NewFromInt(1), Price: decimal.NewFromInt(110)},
	)
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	return ord
}

func TestSubmit(t *testing.T) {
	var captured struct {
		path string
		auth string
		body map[string]any
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		_, _ = w.Write([]byte(`{"code":0,"data":{"acceptance_id":"a-1","leg_acceptance_ids":["a-1","a-2"]}}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "access", "secret")
	ack, err := client.Submit(t.Context(), testOrder(t))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if ack.AcceptanceID != "a-1" {
		t.Fatalf("acceptance id mismatch: %s", ack.AcceptanceID)
	}
	if len(ack.LegAcceptanceIDs) != 2 || ack.LegAcceptanceIDs[1] != "a-2" {
		t.Fatalf("leg acceptance ids mismatch: %v", ack.LegAcceptanceIDs)
	}
	if captured.path != "/api/v1/order/submit" {
		t.Fatalf("path mismatch: %s", captured.path)
	}
	if len(captured.auth) != 32 {
		t.Fatalf("authorization should carry the md5 signature, got %q", captured.auth)
	}
	if captured.body["instrument"] != "USDJPY" || captured.body["method"] != "ifd" {
		t.Fatalf("body mismatch: %+v", captured.body)
	}
	legs, ok := captured.body["legs"].([]any)
	if !ok || len(legs) != 2 {
		t.Fatalf("legs mismatch: %+v", captured.body["legs"])
	}
	first := legs[0].(map[string]any)
	if first["side"] != "buy" || first["kind"] != "market" || first["size"] != "1" {
		t.Fatalf("first leg mismatch: %+v", first)
	}
	if _, ok := first["price"]; ok {
		t.Fatalf("market leg must not carry a price: %+v", first)
	}
	second := legs[1].(map[string]any)
	if second["kind"] != "limit" || second["price"] != "110" {
		t.Fatalf("second leg mismatch: %+v", second)
	}
}

func TestSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":3001,"message":"size too large"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "access", "secret")
	_, err := client.Submit(t.Context(), testOrder(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !exchange.IsRejection(err) {
		t.Fatalf("non-zero code should be a rejection: %v", err)
	}
}

func TestSubmitServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "access", "secret")
	_, err := client.Submit(t.Context(), testOrder(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if exchange.IsRejection(err) {
		t.Fatalf("5xx must stay retryable: %v", err)
	}
}

func TestCancel(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		_, _ = w.Write([]byte(`{"code":0,"data":{"acceptance_id":"a-1","canceled":true}}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "access", "secret")
	err := client.Cancel(t.Context(), exchange.CancelRequest{
		Instrument:   "USDJPY",
		AcceptanceID: "a-1",
		ExchangeID:   "x-1",
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if captured["acceptance_id"] != "a-1" || captured["order_id"] != "x-1" {
		t.Fatalf("cancel body mismatch: %+v", captured)
	}
}

func TestCancelRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":4004,"message":"order not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, "access", "secret")
	err := client.Cancel(t.Context(), exchange.CancelRequest{Instrument: "USDJPY", AcceptanceID: "a-1"})
	if !exchange.IsRejection(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestSignDeterministic(t *testing.T) {
	client := NewClient(nil, "http://localhost", "access", "secret")
	a := client.sign(map[string]string{"tm": "1", "instrument": "USDJPY"})
	b := client.sign(map[string]string{"instrument": "USDJPY", "tm": "1"})
	if a != b {
		t.Fatalf("signature must not depend on map order: %s != %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("signature should be hex md5: %q", a)
	}
}
