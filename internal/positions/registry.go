package positions

import (
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PositionTarget tracks the exit levels and per-level state of one open
// position. Fields other than the levels are mutated by the Evaluator during
// tick processing, which runs in the monitor goroutine only.
type PositionTarget struct {
	Symbol      string
	EntryPrice  decimal.Decimal
	StopLoss    decimal.Decimal
	TakeProfit1 decimal.Decimal
	TakeProfit2 decimal.Decimal
	TakeProfit3 decimal.Decimal
	Strategy    Strategy

	// HighestPrice is monotonically non-decreasing, initialized to entry.
	HighestPrice decimal.Decimal
	// TrailingArmed flips once when price first reaches TakeProfit1 and
	// never resets.
	TrailingArmed bool

	// TP1Done / TP2Done gate the scale-outs to once per level. The final
	// close has no flag: on success the whole record is removed, and a
	// rejected close must stay eligible to re-fire.
	TP1Done bool
	TP2Done bool

	RegisteredAt time.Time
}

// Registry is the in-memory symbol -> target store. Both the decision loop
// (registering fresh entries) and the monitor (reconciling) mutate it, so
// map access is serialized with a mutex.
type Registry struct {
	mu      sync.Mutex
	params  ExitParams
	targets map[string]*PositionTarget

	now func() time.Time
}

func NewRegistry(params ExitParams) *Registry {
	return &Registry{
		params:  params,
		targets: make(map[string]*PositionTarget),
		now:     time.Now,
	}
}

// Register creates or overwrites the target record for a symbol and records
// the registration time for the time stop. Explicit stop/tp1 overrides are
// honored for the standard strategy; pass zero for defaults.
func (r *Registry) Register(symbol string, entry decimal.Decimal, strategy Strategy, explicitStop, explicitTP1 decimal.Decimal) {
	t := r.params.DeriveTargets(entry, strategy, explicitStop, explicitTP1)

	r.mu.Lock()
	r.targets[symbol] = &PositionTarget{
		Symbol:       symbol,
		EntryPrice:   entry,
		StopLoss:     t.Stop,
		TakeProfit1:  t.TP1,
		TakeProfit2:  t.TP2,
		TakeProfit3:  t.TP3,
		Strategy:     strategy,
		HighestPrice: entry,
		RegisteredAt: r.now(),
	}
	r.mu.Unlock()

	hundred := decimal.NewFromInt(100)
	log.Printf("[%s] Tracking position (%s)", symbol, strategy)
	log.Printf("  Entry: $%s", entry.StringFixed(2))
	log.Printf("  Stop:  $%s (%s%%)", t.Stop.StringFixed(2), t.Stop.Div(entry).Sub(one).Mul(hundred).StringFixed(1))
	log.Printf("  TP1:   $%s (+%s%%)", t.TP1.StringFixed(2), t.TP1.Div(entry).Sub(one).Mul(hundred).StringFixed(1))
	log.Printf("  TP2:   $%s (+%s%%)", t.TP2.StringFixed(2), t.TP2.Div(entry).Sub(one).Mul(hundred).StringFixed(1))
	log.Printf("  TP3:   $%s (+%s%%)", t.TP3.StringFixed(2), t.TP3.Div(entry).Sub(one).Mul(hundred).StringFixed(1))
}

// Get returns the tracked target for a symbol, or nil if untracked.
func (r *Registry) Get(symbol string) *PositionTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targets[symbol]
}

// Remove drops a symbol from tracking. Removing an untracked symbol is a no-op.
func (r *Registry) Remove(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, symbol)
}

// Count returns the number of tracked symbols.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.targets)
}

// Reconcile synchronizes tracking against the broker's live position list,
// given as symbol -> average entry price. Live positions without a target
// (opened before this process started, or registered by a prior run) are
// adopted with standard-strategy defaults; tracked symbols the broker no
// longer reports (closed externally) are dropped. Calling it twice with the
// same set is a no-op the second time.
func (r *Registry) Reconcile(live map[string]decimal.Decimal) (added, removed []string) {
	for symbol, avgEntry := range live {
		if r.Get(symbol) != nil {
			continue
		}
		log.Printf("[%s] Untracked broker position discovered, adopting with standard targets", symbol)
		r.Register(symbol, avgEntry, StrategyStandard, decimal.Zero, decimal.Zero)
		added = append(added, symbol)
	}

	r.mu.Lock()
	for symbol := range r.targets {
		if _, ok := live[symbol]; !ok {
			delete(r.targets, symbol)
			removed = append(removed, symbol)
		}
	}
	r.mu.Unlock()

	for _, symbol := range removed {
		log.Printf("[%s] No longer reported by broker, dropping from tracking", symbol)
	}
	return added, removed
}
