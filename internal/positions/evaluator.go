package positions

import (
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// ExitKind distinguishes full liquidations from scale-outs.
type ExitKind int

const (
	FullExit ExitKind = iota
	PartialExit
)

// ExitReason labels which condition triggered an exit. The strings end up in
// logs, alerts and the journal.
type ExitReason string

const (
	ReasonStopLoss     ExitReason = "STOP_LOSS"
	ReasonTrailingStop ExitReason = "TRAILING_STOP"
	ReasonTakeProfit1  ExitReason = "TAKE_PROFIT_1"
	ReasonTakeProfit2  ExitReason = "TAKE_PROFIT_2"
	ReasonTakeProfit3  ExitReason = "TAKE_PROFIT_3"
	ReasonTimeStop     ExitReason = "TIME_STOP"
)

// ExitAction is one sell decision produced by a tick evaluation.
type ExitAction struct {
	Kind   ExitKind
	Qty    decimal.Decimal
	Reason ExitReason
}

// flatThreshold: a position within +/-2% of entry counts as going nowhere
// for the time stop.
var flatThreshold = decimal.NewFromFloat(0.02)

var quarter = decimal.NewFromFloat(0.25)
var half = decimal.NewFromFloat(0.50)

// Evaluator decides, per tick and per symbol, which exit conditions fire.
// It owns no I/O; executing the resulting actions is the Executor's job.
type Evaluator struct {
	params   ExitParams
	registry *Registry

	now func() time.Time
}

func NewEvaluator(params ExitParams, registry *Registry) *Evaluator {
	return &Evaluator{params: params, registry: registry, now: time.Now}
}

// Evaluate inspects one position snapshot and returns the actions that fire
// this tick, in execution order. Conditions are checked in fixed precedence:
// stop loss, trailing stop, TP1, TP2, TP3, time stop. A full exit ends the
// tick; partial exits accumulate, so a gap through TP1 and TP2 yields two
// actions, the second sized against the quantity already reduced by the
// first. pnlPct is the broker-reported unrealized P&L as a fraction.
//
// Bad data (non-positive price or quantity) skips the symbol for this tick;
// one broken read must not take down monitoring of the rest of the book.
func (e *Evaluator) Evaluate(symbol string, price, qty, pnlPct decimal.Decimal) []ExitAction {
	if price.LessThanOrEqual(decimal.Zero) || qty.LessThanOrEqual(decimal.Zero) {
		log.Printf("ERROR: [%s] Malformed position data (price=%s qty=%s), skipping this tick", symbol, price, qty)
		return nil
	}

	t := e.registry.Get(symbol)
	if t == nil {
		return nil
	}

	// Bookkeeping before any condition: ratchet the high-water mark and arm
	// the trailing stop once price has tagged TP1. Arming never reverses.
	if price.GreaterThan(t.HighestPrice) {
		t.HighestPrice = price
	}
	if price.GreaterThanOrEqual(t.TakeProfit1) {
		t.TrailingArmed = true
	}

	// 1. Stop loss
	if price.LessThanOrEqual(t.StopLoss) {
		log.Printf("[%s] STOP LOSS hit at $%s (stop $%s)", symbol, price.StringFixed(2), t.StopLoss.StringFixed(2))
		return []ExitAction{{Kind: FullExit, Qty: qty, Reason: ReasonStopLoss}}
	}

	// 2. Trailing stop
	if t.TrailingArmed {
		trailingLevel := t.HighestPrice.Mul(one.Sub(e.params.TrailingStopPct))
		if price.LessThanOrEqual(trailingLevel) {
			log.Printf("[%s] TRAILING STOP hit at $%s (high $%s, level $%s)",
				symbol, price.StringFixed(2), t.HighestPrice.StringFixed(2), trailingLevel.StringFixed(2))
			return []ExitAction{{Kind: FullExit, Qty: qty, Reason: ReasonTrailingStop}}
		}
	}

	var actions []ExitAction
	remaining := qty

	// 3. Take profit 1: sell a quarter
	if !t.TP1Done && price.GreaterThanOrEqual(t.TakeProfit1) {
		sell := atLeastOneShare(remaining.Mul(quarter).Floor())
		log.Printf("[%s] TARGET 1 hit at $%s, scaling out %s shares", symbol, price.StringFixed(2), sell)
		actions = append(actions, ExitAction{Kind: PartialExit, Qty: sell, Reason: ReasonTakeProfit1})
		t.TP1Done = true
		remaining = remaining.Sub(sell)
	}

	// 4. Take profit 2: sell half of what is left
	if !t.TP2Done && price.GreaterThanOrEqual(t.TakeProfit2) {
		sell := atLeastOneShare(remaining.Mul(half).Floor())
		log.Printf("[%s] TARGET 2 hit at $%s, scaling out %s shares", symbol, price.StringFixed(2), sell)
		actions = append(actions, ExitAction{Kind: PartialExit, Qty: sell, Reason: ReasonTakeProfit2})
		t.TP2Done = true
		remaining = remaining.Sub(sell)
	}

	// 5. Take profit 3: liquidate the rest. No fired flag here: a successful
	// close removes the record, and a rejected order must re-fire next tick.
	if price.GreaterThanOrEqual(t.TakeProfit3) {
		log.Printf("[%s] TARGET 3 hit at $%s, closing out", symbol, price.StringFixed(2))
		actions = append(actions, ExitAction{Kind: FullExit, Qty: remaining, Reason: ReasonTakeProfit3})
		return actions
	}

	// 6. Time stop: held too long while going nowhere
	held := e.now().Sub(t.RegisteredAt)
	if held > e.params.TimeStop && pnlPct.Abs().LessThan(flatThreshold) {
		log.Printf("[%s] TIME STOP: flat after %.0f minutes", symbol, held.Minutes())
		actions = append(actions, ExitAction{Kind: FullExit, Qty: remaining, Reason: ReasonTimeStop})
	}

	return actions
}

func atLeastOneShare(qty decimal.Decimal) decimal.Decimal {
	if qty.LessThan(one) {
		return one
	}
	return qty
}
