package position

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
	"main/pkg/exception"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func collect(events *[]Event) Handler {
	return func(evt Event) {
		*events = append(*events, evt)
	}
}

func TestApplyExecutionOpens(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	err := book.ApplyExecution(Execution{
		Side: enum.OrderSideBuy, Size: dec("1"), Price: dec("100"),
		Commission: dec("2"), SourceID: "a-1", Time: time.Unix(1, 0),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if book.Len() != 1 {
		t.Fatalf("expected one lot, got %d", book.Len())
	}
	if !book.NetSize().Equal(dec("1")) {
		t.Fatalf("net size mismatch: %s", book.NetSize())
	}
	if len(events) != 1 || events[0].Kind != EventLotOpened {
		t.Fatalf("expected one opened event, got %+v", events)
	}
	if !events[0].Lot.Commission.Equal(dec("2")) {
		t.Fatalf("commission mismatch: %s", events[0].Lot.Commission)
	}

	// Same direction appends, never matches.
	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("0.5"), Price: dec("101")}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if book.Len() != 2 {
		t.Fatalf("expected two lots, got %d", book.Len())
	}
	if !book.NetSize().Equal(dec("1.5")) {
		t.Fatalf("net size mismatch: %s", book.NetSize())
	}
}

func TestApplyExecutionPartialClose(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("1"), Price: dec("100"), Commission: dec("10")}); err != nil {
		t.Fatalf("open: %v", err)
	}
	events = events[:0]

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideSell, Size: dec("0.4"), Price: dec("110")}); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(events) != 1 || events[0].Kind != EventLotClosed {
		t.Fatalf("expected one closed event, got %+v", events)
	}
	if !events[0].Profit.Equal(dec("4")) {
		t.Fatalf("profit mismatch: got %s, want 4", events[0].Profit)
	}
	if !events[0].Lot.Size.Equal(dec("0.4")) {
		t.Fatalf("closed fragment size mismatch: %s", events[0].Lot.Size)
	}
	// 40% of the opening commission goes with the fragment.
	if !events[0].Lot.Commission.Equal(dec("4")) {
		t.Fatalf("apportioned commission mismatch: %s", events[0].Lot.Commission)
	}

	lots := book.Lots()
	if len(lots) != 1 {
		t.Fatalf("expected one remaining lot, got %d", len(lots))
	}
	if !lots[0].Size.Equal(dec("0.6")) {
		t.Fatalf("remaining size mismatch: %s", lots[0].Size)
	}
	if !lots[0].Commission.Equal(dec("6")) {
		t.Fatalf("remaining commission mismatch: %s", lots[0].Commission)
	}
}

func TestApplyExecutionRepeatedSplits(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("1"), Price: dec("100"), Commission: dec("10")}); err != nil {
		t.Fatalf("open: %v", err)
	}
	events = events[:0]

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideSell, Size: dec("0.4"), Price: dec("110")}); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := book.ApplyExecution(Execution{Side: enum.OrderSideSell, Size: dec("0.3"), Price: dec("110")}); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected two closed events, got %d", len(events))
	}
	// Every fragment of the same lot takes closed/OpenSize of the
	// original commission: 4 for the 0.4 close, 3 for the 0.3 close.
	if !events[0].Lot.Commission.Equal(dec("4")) {
		t.Fatalf("first fragment commission mismatch: %s", events[0].Lot.Commission)
	}
	if !events[1].Lot.Commission.Equal(dec("3")) {
		t.Fatalf("second fragment commission mismatch: got %s, want 3", events[1].Lot.Commission)
	}

	lots := book.Lots()
	if len(lots) != 1 {
		t.Fatalf("expected one remaining lot, got %d", len(lots))
	}
	if !lots[0].Size.Equal(dec("0.3")) {
		t.Fatalf("remaining size mismatch: %s", lots[0].Size)
	}
	if !lots[0].Commission.Equal(dec("3")) {
		t.Fatalf("remaining commission mismatch: %s", lots[0].Commission)
	}
}

func TestApplyExecutionDuplicateExecID(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	fill := Execution{ExecID: "e-1", Side: enum.OrderSideBuy, Size: dec("0.4"), Price: dec("100"), SourceID: "a-1"}
	if err := book.ApplyExecution(fill); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := book.ApplyExecution(fill); err != nil {
		t.Fatalf("redelivery should be a no-op, got %v", err)
	}

	if !book.NetSize().Equal(dec("0.4")) {
		t.Fatalf("net size mismatch: got %s, want 0.4", book.NetSize())
	}
	if book.Len() != 1 || len(events) != 1 {
		t.Fatalf("duplicate fill should not open a lot: lots=%d events=%d", book.Len(), len(events))
	}

	// A different fill still applies.
	if err := book.ApplyExecution(Execution{ExecID: "e-2", Side: enum.OrderSideBuy, Size: dec("0.6"), Price: dec("101")}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !book.NetSize().Equal(dec("1")) {
		t.Fatalf("net size mismatch: %s", book.NetSize())
	}
}

func TestApplyExecutionFIFO(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("1"), Price: dec("100"), Time: time.Unix(1, 0)}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("1"), Price: dec("105"), Time: time.Unix(2, 0)}); err != nil {
		t.Fatalf("open: %v", err)
	}
	events = events[:0]

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideSell, Size: dec("1.5"), Price: dec("110")}); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected two closed events, got %d", len(events))
	}
	// Oldest lot first: full close of the 100 lot, then half of the 105 lot.
	if !events[0].Profit.Equal(dec("10")) {
		t.Fatalf("first profit mismatch: %s", events[0].Profit)
	}
	if !events[0].Lot.OpenPrice.Equal(dec("100")) {
		t.Fatalf("first closed lot open price mismatch: %s", events[0].Lot.OpenPrice)
	}
	if !events[1].Profit.Equal(dec("2")) {
		t.Fatalf("second profit mismatch: %s", events[1].Profit)
	}

	if book.Len() != 1 {
		t.Fatalf("expected one remaining lot, got %d", book.Len())
	}
	if !book.NetSize().Equal(dec("0.5")) {
		t.Fatalf("net size mismatch: %s", book.NetSize())
	}
}

func TestApplyExecutionReversal(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("1"), Price: dec("100")}); err != nil {
		t.Fatalf("open: %v", err)
	}
	events = events[:0]

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideSell, Size: dec("1.5"), Price: dec("110"), Commission: dec("3")}); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected close and open, got %d", len(events))
	}
	if events[0].Kind != EventLotClosed || !events[0].Profit.Equal(dec("10")) {
		t.Fatalf("close mismatch: %+v", events[0])
	}
	if events[1].Kind != EventLotOpened {
		t.Fatalf("expected opened event, got %+v", events[1])
	}
	if !events[1].Lot.Size.Equal(dec("-0.5")) {
		t.Fatalf("reversed lot size mismatch: %s", events[1].Lot.Size)
	}
	// One third of the fill opened the new lot, so it takes one third of
	// the fill's commission.
	if !events[1].Lot.Commission.Equal(dec("1")) {
		t.Fatalf("reversed lot commission mismatch: %s", events[1].Lot.Commission)
	}
	if !book.NetSize().Equal(dec("-0.5")) {
		t.Fatalf("net size mismatch: %s", book.NetSize())
	}
}

func TestApplyExecutionShortClose(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideSell, Size: dec("2"), Price: dec("110")}); err != nil {
		t.Fatalf("open short: %v", err)
	}
	events = events[:0]

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("2"), Price: dec("100")}); err != nil {
		t.Fatalf("close short: %v", err)
	}

	if len(events) != 1 || events[0].Kind != EventLotClosed {
		t.Fatalf("expected one closed event, got %+v", events)
	}
	// (100 - 110) * -2 = 20.
	if !events[0].Profit.Equal(dec("20")) {
		t.Fatalf("short profit mismatch: %s", events[0].Profit)
	}
	if book.Len() != 0 {
		t.Fatalf("book should be flat, got %d lots", book.Len())
	}
}

func TestApplyExecutionProfitFloors(t *testing.T) {
	var events []Event
	book := NewBook("USDJPY", collect(&events))

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: dec("0.3"), Price: dec("100")}); err != nil {
		t.Fatalf("open: %v", err)
	}
	events = events[:0]

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideSell, Size: dec("0.3"), Price: dec("105.55")}); err != nil {
		t.Fatalf("close: %v", err)
	}
	// 5.55 * 0.3 = 1.665, floored to 1.
	if !events[0].Profit.Equal(dec("1")) {
		t.Fatalf("profit should floor: %s", events[0].Profit)
	}
}

func TestApplyExecutionRejectsInvalid(t *testing.T) {
	book := NewBook("USDJPY", nil)

	if err := book.ApplyExecution(Execution{Side: enum.OrderSideBuy, Size: decimal.Zero}); !errors.Is(err, exception.ErrExecutionSize) {
		t.Fatalf("expected size error, got %v", err)
	}
	if err := book.ApplyExecution(Execution{Size: dec("1")}); !errors.Is(err, exception.ErrEventUnknownSide) {
		t.Fatalf("expected side error, got %v", err)
	}
}

func TestReset(t *testing.T) {
	book := NewBook("USDJPY", nil)
	book.Reset([]Lot{
		{Size: dec("1"), OpenSize: dec("1"), OpenPrice: dec("100")},
		{Size: dec("0.5"), OpenSize: dec("1"), OpenPrice: dec("105")},
	})

	if book.Len() != 2 {
		t.Fatalf("expected two lots, got %d", book.Len())
	}
	if !book.NetSize().Equal(dec("1.5")) {
		t.Fatalf("net size mismatch: %s", book.NetSize())
	}

	// The returned slice is a copy; mutating it does not touch the book.
	lots := book.Lots()
	lots[0].Size = dec("99")
	if !book.Lots()[0].Size.Equal(dec("1")) {
		t.Fatal("Lots should return a copy")
	}
}

func TestResetClearsAppliedExecutions(t *testing.T) {
	book := NewBook("USDJPY", nil)

	fill := Execution{ExecID: "e-1", Side: enum.OrderSideBuy, Size: dec("1"), Price: dec("100")}
	if err := book.ApplyExecution(fill); err != nil {
		t.Fatalf("apply: %v", err)
	}

	book.Reset(nil)
	if err := book.ApplyExecution(fill); err != nil {
		t.Fatalf("apply after reset: %v", err)
	}
	if !book.NetSize().Equal(dec("1")) {
		t.Fatalf("net size mismatch: %s", book.NetSize())
	}
}
