package position

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// Lot is one FIFO-tracked chunk of open position. Size is signed: the
// sign is the direction. OpenSize keeps the original opening size so
// split fragments still report the lot they came from.
type Lot struct {
	OpenTime   time.Time
	Size       decimal.Decimal
	OpenSize   decimal.Decimal
	OpenPrice  decimal.Decimal
	Commission decimal.Decimal
	Swap       decimal.Decimal
	SourceID   string
}

// Execution is the trade fill fed into the book. Size is unsigned; the
// direction comes from Side. ExecID identifies the fill so a
// redelivered execution applies at most once.
type Execution struct {
	ExecID     string
	Side       enum.OrderSide
	Size       decimal.Decimal
	Price      decimal.Decimal
	Commission decimal.Decimal
	Swap       decimal.Decimal
	SourceID   string
	Time       time.Time
}

// EventKind opened, closed
type EventKind uint8

const (
	_event_kind_beg EventKind = iota
	EventLotOpened
	EventLotClosed
	_event_kind_end
)

func (k EventKind) IsAvailable() bool {
	return k > _event_kind_beg && k < _event_kind_end
}

// Event reports a lot (or closed fragment) leaving or entering the book.
// For EventLotClosed, Lot describes the closed fragment with its
// apportioned commission and swap, and Profit carries the realized P&L.
type Event struct {
	Kind       EventKind
	Lot        Lot
	ClosePrice decimal.Decimal
	Profit     decimal.Decimal
	Time       time.Time
}

// Handler consumes position events. It must not retain the event's Lot
// beyond the call.
type Handler func(Event)

// Book holds the FIFO queue of open lots for one instrument. All lots
// share the same sign; a reversal drains the queue before any lot opens
// in the new direction. The book is only ever touched by the
// instrument's single event-dispatch goroutine, so it carries no lock.
type Book struct {
	instrument string
	lots       []Lot
	applied    map[string]struct{}
	handler    Handler
}

func NewBook(instrument string, handler Handler) *Book {
	return &Book{
		instrument: instrument,
		applied:    make(map[string]struct{}),
		handler:    handler,
	}
}

func (b *Book) Instrument() string {
	return b.instrument
}

func (b *Book) Len() int {
	return len(b.lots)
}

// Lots returns a copy of the open queue, oldest first.
func (b *Book) Lots() []Lot {
	out := make([]Lot, len(b.lots))
	copy(out, b.lots)
	return out
}

// NetSize returns the signed sum of all open lots.
func (b *Book) NetSize() decimal.Decimal {
	sum := decimal.Zero
	for i := range b.lots {
		sum = sum.Add(b.lots[i].Size)
	}
	return sum
}

// Reset replaces the queue wholesale, e.g. when loading the currently
// open positions from the exchange at startup. No matching applies and
// the applied-execution record starts over.
func (b *Book) Reset(lots []Lot) {
	b.lots = make([]Lot, len(lots))
	copy(b.lots, lots)
	b.applied = make(map[string]struct{})
}

// ApplyExecution converts one fill into opened/closed lots.
//
// A fill in the book's direction (or into an empty book) opens a new
// lot at the tail. An offsetting fill consumes lots from the head,
// strictly oldest first, splitting the last touched lot when the fill
// does not cover it; whatever remains after the queue drains reopens in
// the new direction.
func (b *Book) ApplyExecution(exec Execution) error {
	if !exec.Size.IsPositive() {
		return exception.ErrExecutionSize
	}
	if !exec.Side.IsAvailable() {
		return exception.ErrEventUnknownSide
	}
	if len(exec.ExecID) != 0 {
		if _, ok := b.applied[exec.ExecID]; ok {
			// Redelivered fill, already in the book.
			return nil
		}
		b.applied[exec.ExecID] = struct{}{}
	}

	delta := exec.Size
	if exec.Side == enum.OrderSideSell {
		delta = delta.Neg()
	}

	if len(b.lots) == 0 || b.lots[0].Size.Sign() == delta.Sign() {
		b.open(exec, delta, decimal.NewFromInt(1))
		return nil
	}

	remaining := delta
	for !remaining.IsZero() && len(b.lots) > 0 {
		head := &b.lots[0]
		if head.Size.Abs().LessThanOrEqual(remaining.Abs()) {
			// Head fully closed.
			b.emitClosed(*head, head.Size, exec)
			remaining = remaining.Add(head.Size)
			b.lots = b.lots[1:]
			continue
		}

		// Split: the closed fragment takes the remaining delta, the lot
		// keeps the rest with proportionally reduced commission and swap.
		// Dividing by the lot's current size keeps each fragment's share
		// equal to closed/OpenSize of the original totals across repeated
		// splits.
		closed := remaining.Neg()
		ratio := closed.Div(head.Size)
		fragment := Lot{
			OpenTime:   head.OpenTime,
			Size:       closed,
			OpenSize:   head.OpenSize,
			OpenPrice:  head.OpenPrice,
			Commission: head.Commission.Mul(ratio),
			Swap:       head.Swap.Mul(ratio),
			SourceID:   head.SourceID,
		}
		head.Size = head.Size.Add(remaining)
		head.Commission = head.Commission.Sub(fragment.Commission)
		head.Swap = head.Swap.Sub(fragment.Swap)
		b.emitClosed(fragment, closed, exec)
		remaining = decimal.Zero
	}

	if !remaining.IsZero() {
		// Reversal: the leftover opens in the new direction.
		b.open(exec, remaining, remaining.Abs().Div(exec.Size))
	}
	return nil
}

// open pushes a new lot at the tail. share apportions the execution's
// commission and swap to the opened part of the fill.
func (b *Book) open(exec Execution, size, share decimal.Decimal) {
	lot := Lot{
		OpenTime:   exec.Time,
		Size:       size,
		OpenSize:   size,
		OpenPrice:  exec.Price,
		Commission: exec.Commission.Mul(share),
		Swap:       exec.Swap.Mul(share),
		SourceID:   exec.SourceID,
	}
	b.lots = append(b.lots, lot)
	if b.handler != nil {
		b.handler(Event{Kind: EventLotOpened, Lot: lot, Time: exec.Time})
	}
}

// emitClosed reports a closed lot or fragment. Realized P&L uses floor
// rounding to match exchange settlement; the signed closed size already
// carries the direction multiplier.
func (b *Book) emitClosed(fragment Lot, signedClosed decimal.Decimal, exec Execution) {
	if b.handler == nil {
		return
	}
	profit := exec.Price.Sub(fragment.OpenPrice).Mul(signedClosed).Floor()
	b.handler(Event{
		Kind:       EventLotClosed,
		Lot:        fragment,
		ClosePrice: exec.Price,
		Profit:     profit,
		Time:       exec.Time,
	})
}
