package order

import (
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Update merges an authoritative snapshot (typically a polling read)
// into the live order without discarding information either side has.
//
// Matching is tried in order: exact positional correspondence when the
// leg counts match, acceptance-id correspondence, then a small set of
// method-specific fallbacks. Anything still ambiguous is a structural
// error; the order is left untouched rather than guessed at.
func (o *Order) Update(snapshot *Order) error {
	if snapshot == nil {
		return exception.ErrNilInstance
	}

	targets, err := o.matchLegs(snapshot)
	if err != nil {
		return err
	}

	for si, ti := range targets {
		mergeLeg(&o.Legs[ti], &snapshot.Legs[si])
	}

	if len(o.AcceptanceID) == 0 {
		o.AcceptanceID = snapshot.AcceptanceID
	}
	if len(o.ExchangeID) == 0 {
		o.ExchangeID = snapshot.ExchangeID
	}
	if o.ExpireAt.IsZero() {
		o.ExpireAt = snapshot.ExpireAt
	}
	if snapshot.CompletedLegs > o.CompletedLegs {
		o.CompletedLegs = snapshot.CompletedLegs
	}
	return nil
}

// matchLegs maps every snapshot leg index to a live leg index.
func (o *Order) matchLegs(snapshot *Order) (map[int]int, error) {
	targets := make(map[int]int, len(snapshot.Legs))

	if len(snapshot.Legs) == len(o.Legs) {
		for i := range snapshot.Legs {
			targets[i] = i
		}
		return targets, nil
	}

	matchedAll := len(snapshot.Legs) > 0
	for si := range snapshot.Legs {
		ti, leg := o.LegByAcceptanceID(snapshot.Legs[si].AcceptanceID)
		if leg == nil {
			matchedAll = false
			break
		}
		targets[si] = ti
	}
	if matchedAll {
		return targets, nil
	}

	return o.fallbackMatch(snapshot)
}

func (o *Order) fallbackMatch(snapshot *Order) (map[int]int, error) {
	if len(snapshot.Legs) != 1 {
		return nil, exception.ErrOrderReconcileAmbiguous
	}

	switch o.Method {
	case enum.OrderingMethodIfDone:
		// A single-leg snapshot refers to the triggering leg until it is
		// done, afterwards to the contingent leg.
		if o.Legs[0].State.IsDone() {
			return map[int]int{0: 1}, nil
		}
		return map[int]int{0: 0}, nil

	case enum.OrderingMethodIfDoneOneCancelsOther:
		if !o.Legs[0].State.IsDone() {
			return map[int]int{0: 0}, nil
		}
		return o.matchBySideKind(snapshot, 1, 2)

	case enum.OrderingMethodOneCancelsOther:
		return o.matchBySideKind(snapshot, 0, 1)
	}

	return nil, exception.ErrOrderReconcileAmbiguous
}

// matchBySideKind resolves a single-leg snapshot against the given leg
// indexes when exactly one of them shares the snapshot leg's side and
// kind.
func (o *Order) matchBySideKind(snapshot *Order, idx ...int) (map[int]int, error) {
	leg := &snapshot.Legs[0]
	match := -1
	for _, i := range idx {
		if o.Legs[i].Side == leg.Side && o.Legs[i].Kind == leg.Kind {
			if match >= 0 {
				return nil, exception.ErrOrderReconcileAmbiguous
			}
			match = i
		}
	}
	if match < 0 {
		return nil, exception.ErrOrderReconcileAmbiguous
	}
	return map[int]int{0: match}, nil
}

// mergeLeg folds a snapshot leg into a live leg. Identifiers fill empty
// slots, executed size only grows, and the state never regresses.
func mergeLeg(dst, src *Leg) {
	if len(dst.AcceptanceID) == 0 {
		dst.AcceptanceID = src.AcceptanceID
	}
	if len(dst.ExchangeID) == 0 {
		dst.ExchangeID = src.ExchangeID
	}
	if len(dst.FailureReason) == 0 {
		dst.FailureReason = src.FailureReason
	}
	if src.Executed.GreaterThan(dst.Executed) {
		dst.Executed = src.Executed
	}
	for _, id := range src.ExecIDs {
		if !containsExecID(dst.ExecIDs, id) {
			dst.ExecIDs = append(dst.ExecIDs, id)
		}
	}
	if src.State.IsAvailable() && !dst.State.IsDone() {
		if src.State.IsDone() || src.State > dst.State {
			dst.State = src.State
		}
	}
}

func containsExecID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
