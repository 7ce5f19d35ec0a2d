package positions

import (
	"fmt"
	"log"

	"momentum_trading/internal/market"

	"github.com/shopspring/decimal"
)

// Journal receives executed exits for durable record keeping. Optional.
type Journal interface {
	RecordExit(symbol string, qty, entryPrice, exitPrice decimal.Decimal, reason string, orderID string, partial bool)
}

// Notifier pushes human-facing alerts. Optional.
type Notifier interface {
	Notify(text string)
}

// Executor turns exit actions into broker orders. On a successful full exit
// it removes the symbol from the registry; on any failure it leaves the
// registry untouched so the next tick re-evaluates and retries.
type Executor struct {
	provider market.Provider
	registry *Registry
	journal  Journal
	notifier Notifier
}

func NewExecutor(provider market.Provider, registry *Registry, journal Journal, notifier Notifier) *Executor {
	return &Executor{provider: provider, registry: registry, journal: journal, notifier: notifier}
}

// Execute submits a market sell for the action and reports success. The
// current price is only used for logging and the journal record.
func (x *Executor) Execute(action ExitAction, symbol string, price decimal.Decimal) bool {
	if action.Qty.LessThan(one) {
		return false
	}

	// Snapshot the entry before a full exit drops the record.
	entry := decimal.Zero
	if t := x.registry.Get(symbol); t != nil {
		entry = t.EntryPrice
	}

	order, err := x.provider.PlaceMarketSell(symbol, action.Qty)
	if err != nil {
		log.Printf("ERROR: [%s] Exit order failed (%s, %s shares): %v — will retry next tick", symbol, action.Reason, action.Qty, err)
		return false
	}

	label := "EXIT"
	if action.Kind == PartialExit {
		label = "PARTIAL EXIT"
	}
	log.Printf("[%s] %s order placed: %s shares (%s), order %s status %s",
		symbol, label, action.Qty, action.Reason, order.ID, order.Status)

	if x.journal != nil {
		x.journal.RecordExit(symbol, action.Qty, entry, price, string(action.Reason), order.ID, action.Kind == PartialExit)
	}
	if x.notifier != nil {
		x.notifier.Notify(fmt.Sprintf("%s %s: sold %s @ ~$%s (%s)",
			label, symbol, action.Qty, price.StringFixed(2), action.Reason))
	}

	if action.Kind == FullExit {
		x.registry.Remove(symbol)
	}
	return true
}
