package enum

// OrderSide buy, sell
type OrderSide uint8

const (
	_order_side_beg OrderSide = iota
	OrderSideBuy
	OrderSideSell
	_order_side_end
)

func (s OrderSide) IsAvailable() bool {
	return s > _order_side_beg && s < _order_side_end
}

// LegKind market, limit, stop, stop limit, trailing stop
type LegKind uint8

const (
	_leg_kind_beg LegKind = iota
	LegKindMarket
	LegKindLimit
	LegKindStop
	LegKindStopLimit
	LegKindTrailingStop
	_leg_kind_end
)

func (k LegKind) IsAvailable() bool {
	return k > _leg_kind_beg && k < _leg_kind_end
}

// RequiresPrice reports whether legs of this kind carry a limit price.
func (k LegKind) RequiresPrice() bool {
	return k == LegKindLimit || k == LegKindStopLimit
}

// RequiresTrigger reports whether legs of this kind carry a trigger price.
func (k LegKind) RequiresTrigger() bool {
	return k == LegKindStop || k == LegKindStopLimit
}

// RequiresTrail reports whether legs of this kind carry a trailing offset.
func (k LegKind) RequiresTrail() bool {
	return k == LegKindTrailingStop
}

// OrderingMethod simple, if done, one cancels other, if done one cancels other
type OrderingMethod uint8

const (
	_ordering_method_beg OrderingMethod = iota
	OrderingMethodSimple
	OrderingMethodIfDone
	OrderingMethodOneCancelsOther
	OrderingMethodIfDoneOneCancelsOther
	_ordering_method_end
)

func (m OrderingMethod) IsAvailable() bool {
	return m > _ordering_method_beg && m < _ordering_method_end
}

// LegCount returns the fixed number of legs for the method.
func (m OrderingMethod) LegCount() int {
	switch m {
	case OrderingMethodSimple:
		return 1
	case OrderingMethodIfDone, OrderingMethodOneCancelsOther:
		return 2
	case OrderingMethodIfDoneOneCancelsOther:
		return 3
	default:
		return 0
	}
}

// CompleteThreshold returns how many leg complete signals finish the order.
func (m OrderingMethod) CompleteThreshold() int {
	switch m {
	case OrderingMethodSimple, OrderingMethodOneCancelsOther:
		return 1
	case OrderingMethodIfDone, OrderingMethodIfDoneOneCancelsOther:
		return 2
	default:
		return 0
	}
}
