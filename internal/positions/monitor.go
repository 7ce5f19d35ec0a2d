package positions

import (
	"context"
	"log"
	"time"

	"momentum_trading/internal/market"

	"github.com/shopspring/decimal"
)

// Monitor is the scheduling driver of the exit subsystem: a fixed-interval
// poll that reconciles the registry against the broker's live positions and
// runs every tracked symbol through the evaluator. A failing tick is logged
// and the loop carries on; it only stops when the context is cancelled.
type Monitor struct {
	provider  market.Provider
	registry  *Registry
	evaluator *Evaluator
	executor  *Executor
	interval  time.Duration
}

func NewMonitor(provider market.Provider, registry *Registry, evaluator *Evaluator, executor *Executor, interval time.Duration) *Monitor {
	return &Monitor{
		provider:  provider,
		registry:  registry,
		evaluator: evaluator,
		executor:  executor,
		interval:  interval,
	}
}

// Run polls until ctx is cancelled. Cancellation is cooperative at the tick
// boundary; it does not liquidate anything (see EmergencyExitAll).
func (m *Monitor) Run(ctx context.Context) {
	log.Printf("Position monitor started (interval %s)", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Tick()
	for {
		select {
		case <-ctx.Done():
			log.Println("Position monitor stopping")
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick runs one reconcile-and-evaluate pass over the live position list.
func (m *Monitor) Tick() {
	brokerPositions, err := m.provider.ListPositions()
	if err != nil {
		log.Printf("Warning: listing positions failed, skipping tick: %v", err)
		return
	}

	live := make(map[string]decimal.Decimal, len(brokerPositions))
	for _, p := range brokerPositions {
		live[p.Symbol] = p.AvgEntryPrice
	}
	m.registry.Reconcile(live)

	for _, p := range brokerPositions {
		actions := m.evaluator.Evaluate(p.Symbol, p.CurrentPrice, p.Qty, p.UnrealizedPLPC)
		for _, action := range actions {
			m.executor.Execute(action, p.Symbol, p.CurrentPrice)
		}
	}
}

// EmergencyExitAll liquidates every open position at market. Explicitly
// invoked (max-loss breaker, operator command); never triggered by shutdown.
func (m *Monitor) EmergencyExitAll() {
	log.Println("EMERGENCY EXIT: closing all positions")

	brokerPositions, err := m.provider.ListPositions()
	if err != nil {
		log.Printf("ERROR: Emergency exit could not list positions: %v", err)
		return
	}

	for _, p := range brokerPositions {
		if _, err := m.provider.PlaceMarketSell(p.Symbol, p.Qty); err != nil {
			log.Printf("ERROR: Emergency exit failed for %s: %v", p.Symbol, err)
			continue
		}
		log.Printf("[%s] Emergency exit: %s shares", p.Symbol, p.Qty)
		m.registry.Remove(p.Symbol)
	}
}
