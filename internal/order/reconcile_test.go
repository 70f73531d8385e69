package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestUpdatePositional(t *testing.T) {
	live, err := IfDone("USDJPY", marketLeg(enum.OrderSideBuy, "1"), limitLeg(enum.OrderSideSell, "1", "110"))
	if err != nil {
		t.Fatalf("new order: %v", err)
	}

	snapshot := *live
	snapshot.Legs = make([]Leg, len(live.Legs))
	copy(snapshot.Legs, live.Legs)
	snapshot.AcceptanceID = "p-1"
	snapshot.ExchangeID = "x-1"
	snapshot.Legs[0].AcceptanceID = "a-0"
	snapshot.Legs[0].Executed = decimal.NewFromInt(1)
	snapshot.Legs[0].State = enum.LegStateExecuted

	if err := live.Update(&snapshot); err != nil {
		t.Fatalf("update: %v", err)
	}
	if live.AcceptanceID != "p-1" || live.ExchangeID != "x-1" {
		t.Fatalf("ids not merged: %s %s", live.AcceptanceID, live.ExchangeID)
	}
	if !live.Legs[0].Executed.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("executed not merged: %s", live.Legs[0].Executed)
	}
	if live.Legs[0].State != enum.LegStateExecuted {
		t.Fatalf("state not merged: %d", live.Legs[0].State)
	}
}

func TestUpdateByAcceptanceID(t *testing.T) {
	live, err := IfDoneOneCancelsOther("USDJPY",
		marketLeg(enum.OrderSideBuy, "1"),
		limitLeg(enum.OrderSideSell, "1", "110"),
		stopLeg(enum.OrderSideSell, "1", "90"),
	)
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	live.Legs[0].AcceptanceID = "a-0"
	live.Legs[2].AcceptanceID = "a-2"

	snapshot := &Order{Method: live.Method, Legs: []Leg{
		{Side: enum.OrderSideSell, Kind: enum.LegKindStop, Size: decimal.NewFromInt(1),
			AcceptanceID: "a-2", ExchangeID: "x-2", State: enum.LegStateArmed},
	}}

	if err := live.Update(snapshot); err != nil {
		t.Fatalf("update: %v", err)
	}
	if live.Legs[2].ExchangeID != "x-2" {
		t.Fatalf("leg 2 exchange id not merged: %s", live.Legs[2].ExchangeID)
	}
	if live.Legs[2].State != enum.LegStateArmed {
		t.Fatalf("leg 2 state not merged: %d", live.Legs[2].State)
	}
}

func TestUpdateFallbackIfDone(t *testing.T) {
	live, err := IfDone("USDJPY", marketLeg(enum.OrderSideBuy, "1"), limitLeg(enum.OrderSideSell, "1", "110"))
	if err != nil {
		t.Fatalf("new order: %v", err)
	}

	snapshot := &Order{Method: live.Method, Legs: []Leg{
		{Side: enum.OrderSideBuy, Kind: enum.LegKindMarket, Size: decimal.NewFromInt(1), ExchangeID: "x-0"},
	}}
	if err := live.Update(snapshot); err != nil {
		t.Fatalf("update: %v", err)
	}
	if live.Legs[0].ExchangeID != "x-0" {
		t.Fatalf("snapshot should target the triggering leg, got %q", live.Legs[0].ExchangeID)
	}

	// Once the triggering leg is done, the single-leg snapshot refers to
	// the contingent leg.
	live.Legs[0].State = enum.LegStateCompleted
	snapshot = &Order{Method: live.Method, Legs: []Leg{
		{Side: enum.OrderSideSell, Kind: enum.LegKindLimit, Size: decimal.NewFromInt(1), ExchangeID: "x-1"},
	}}
	if err := live.Update(snapshot); err != nil {
		t.Fatalf("update: %v", err)
	}
	if live.Legs[1].ExchangeID != "x-1" {
		t.Fatalf("snapshot should target the contingent leg, got %q", live.Legs[1].ExchangeID)
	}
}

func TestUpdateFallbackOCO(t *testing.T) {
	live, err := OneCancelsOther("USDJPY", limitLeg(enum.OrderSideSell, "1", "110"), stopLeg(enum.OrderSideSell, "1", "90"))
	if err != nil {
		t.Fatalf("new order: %v", err)
	}

	snapshot := &Order{Method: live.Method, Legs: []Leg{
		{Side: enum.OrderSideSell, Kind: enum.LegKindStop, Size: decimal.NewFromInt(1), ExchangeID: "x-stop"},
	}}
	if err := live.Update(snapshot); err != nil {
		t.Fatalf("update: %v", err)
	}
	if live.Legs[1].ExchangeID != "x-stop" {
		t.Fatalf("snapshot should match the stop leg, got %q", live.Legs[1].ExchangeID)
	}
}

func TestUpdateAmbiguous(t *testing.T) {
	// Both legs share side and kind; a single-leg snapshot cannot decide.
	live, err := OneCancelsOther("USDJPY", limitLeg(enum.OrderSideSell, "1", "110"), limitLeg(enum.OrderSideSell, "1", "120"))
	if err != nil {
		t.Fatalf("new order: %v", err)
	}

	snapshot := &Order{Method: live.Method, Legs: []Leg{
		{Side: enum.OrderSideSell, Kind: enum.LegKindLimit, Size: decimal.NewFromInt(1)},
	}}
	if err := live.Update(snapshot); !errors.Is(err, exception.ErrOrderReconcileAmbiguous) {
		t.Fatalf("expected ambiguous, got %v", err)
	}
}

func TestUpdateNil(t *testing.T) {
	live, err := Simple("USDJPY", marketLeg(enum.OrderSideBuy, "1"))
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	if err := live.Update(nil); !errors.Is(err, exception.ErrNilInstance) {
		t.Fatalf("expected nil instance, got %v", err)
	}
}

func TestMergeLegNeverRegresses(t *testing.T) {
	dst := Leg{AcceptanceID: "keep", Executed: decimal.NewFromInt(2), State: enum.LegStateExecuted}
	src := Leg{AcceptanceID: "drop", ExchangeID: "x-1", Executed: decimal.NewFromInt(1), State: enum.LegStatePartiallyExecuted}

	mergeLeg(&dst, &src)

	if dst.AcceptanceID != "keep" {
		t.Fatalf("acceptance id overwritten: %s", dst.AcceptanceID)
	}
	if dst.ExchangeID != "x-1" {
		t.Fatalf("empty exchange id should fill: %s", dst.ExchangeID)
	}
	if !dst.Executed.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("executed regressed: %s", dst.Executed)
	}
	if dst.State != enum.LegStateExecuted {
		t.Fatalf("state regressed: %d", dst.State)
	}

	// A done state always wins over a live one.
	src.State = enum.LegStateCanceled
	mergeLeg(&dst, &src)
	if dst.State != enum.LegStateCanceled {
		t.Fatalf("done state should win: %d", dst.State)
	}
}
