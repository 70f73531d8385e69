package stream

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const (
	_methodLifecycleUpdate = "lifecycle.update"
	_lifecycleSubscribeID  = 7001
)

// EventPayload mirrors one lifecycle message on the wire. Decimal
// fields arrive as JSON strings.
type EventPayload struct {
	Method            string          `json:"method"`
	Instrument        string          `json:"instrument"`
	Kind              string          `json:"kind"`
	AcceptanceID      string          `json:"acceptance_id"`
	OrderID           string          `json:"order_id"`
	ArmedAcceptanceID string          `json:"armed_acceptance_id"`
	ExecID            string          `json:"exec_id"`
	Side              string          `json:"side"`
	Price             decimal.Decimal `json:"price"`
	Size              decimal.Decimal `json:"size"`
	Commission        decimal.Decimal `json:"commission"`
	Swap              decimal.Decimal `json:"swap"`
	Reason            string          `json:"reason"`
	ExpireAt          int64           `json:"expire_at"`
	Time              int64           `json:"time"`
}

type SubscribeResponse struct {
	ID     int64 `json:"id"`
	Result struct {
		Status string `json:"status"`
	} `json:"result"`
	Error any `json:"error"`
}

// Event converts the wire payload into the core event value.
func (p EventPayload) Event() (model.LifecycleEvent, error) {
	kind, err := parseKind(p.Kind)
	if err != nil {
		return model.LifecycleEvent{}, err
	}

	evt := model.LifecycleEvent{
		Kind:              kind,
		Instrument:        p.Instrument,
		AcceptanceID:      p.AcceptanceID,
		ExchangeID:        p.OrderID,
		ArmedAcceptanceID: p.ArmedAcceptanceID,
		ExecID:            p.ExecID,
		Side:              parseSide(p.Side),
		Price:             p.Price,
		Size:              p.Size,
		Commission:        p.Commission,
		Swap:              p.Swap,
		Reason:            p.Reason,
		Time:              time.UnixMilli(p.Time),
	}
	if p.ExpireAt > 0 {
		evt.ExpireAt = time.UnixMilli(p.ExpireAt)
	}
	if err := evt.Validate(); err != nil {
		return model.LifecycleEvent{}, err
	}
	return evt, nil
}

func parseKind(kind string) (enum.EventKind, error) {
	switch kind {
	case "order":
		return enum.EventKindOrder, nil
	case "order_failed":
		return enum.EventKindOrderFailed, nil
	case "cancel":
		return enum.EventKindCancel, nil
	case "cancel_failed":
		return enum.EventKindCancelFailed, nil
	case "execution":
		return enum.EventKindExecution, nil
	case "trigger":
		return enum.EventKindTrigger, nil
	case "complete":
		return enum.EventKindComplete, nil
	case "expire":
		return enum.EventKindExpire, nil
	default:
		return 0, exception.ErrEventUnknownKind
	}
}

func parseSide(side string) enum.OrderSide {
	switch side {
	case "buy":
		return enum.OrderSideBuy
	case "sell":
		return enum.OrderSideSell
	default:
		return 0
	}
}
