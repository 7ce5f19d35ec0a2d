// Package trader runs the entry side of the bot: periodically scan the
// market for candidates, gate them through risk checks, and open bracket
// positions that the monitor then manages to exit. The exit side never
// depends on this package; with no LLM configured the bot still monitors
// and exits existing positions.
package trader

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"momentum_trading/internal/ai"
	"momentum_trading/internal/config"
	"momentum_trading/internal/market"
	"momentum_trading/internal/models"
	"momentum_trading/internal/positions"
	"momentum_trading/internal/search"

	"github.com/shopspring/decimal"
)

// minConfidence is the floor below which a GO decision is still skipped.
const minConfidence = 60.0

// Journal is the slice of the trade journal the decision loop needs.
type Journal interface {
	RecordEntry(symbol string, qty, price decimal.Decimal, strategy, orderID string)
	RealizedPnLSince(cutoff time.Time) (decimal.Decimal, error)
}

// Trader owns one scan cycle at a time. It shares the registry with the
// monitor goroutine; all registry access goes through its mutex.
type Trader struct {
	cfg      *config.Config
	provider market.Provider
	registry *positions.Registry
	ai       *ai.Client
	search   *search.Client
	journal  Journal
	notifier positions.Notifier

	interval time.Duration
	now      func() time.Time

	// lossAlertDay remembers the last UTC day the daily-loss alert fired so
	// the breaker does not spam the chat every cycle.
	lossAlertDay time.Time
}

func New(cfg *config.Config, provider market.Provider, registry *positions.Registry, aiClient *ai.Client, searchClient *search.Client, journal Journal, notifier positions.Notifier) *Trader {
	return &Trader{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		ai:       aiClient,
		search:   searchClient,
		journal:  journal,
		notifier: notifier,
		interval: time.Duration(cfg.ScanIntervalMins) * time.Minute,
		now:      time.Now,
	}
}

// Run executes the scan loop until the context is cancelled. One cycle runs
// immediately so a restart mid-session does not wait a full interval.
func (t *Trader) Run(ctx context.Context) {
	log.Printf("Decision loop started (every %v)", t.interval)

	t.Poll()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Decision loop stopped")
			return
		case <-ticker.C:
			t.Poll()
		}
	}
}

// Poll runs one scan cycle. Every failure path logs and returns; the next
// cycle starts fresh.
func (t *Trader) Poll() {
	if t.ai == nil {
		return
	}

	clock, err := t.provider.GetClock()
	if err != nil {
		log.Printf("ERROR: Failed to get market clock: %v", err)
		return
	}
	if !clock.IsOpen {
		log.Printf("Market closed, next open %s, skipping scan", clock.NextOpen.Format(time.RFC3339))
		return
	}

	account, err := t.provider.GetAccount()
	if err != nil {
		log.Printf("ERROR: Failed to get account: %v", err)
		return
	}

	if t.dailyLossHalt(account) {
		return
	}

	open := t.registry.Count()
	if open >= t.cfg.MaxPositions {
		log.Printf("At max positions (%d/%d), skipping scan", open, t.cfg.MaxPositions)
		return
	}

	opportunities, err := t.ai.ScanOpportunities(t.marketContext(account, open))
	if err != nil {
		log.Printf("ERROR: Market scan failed: %v", err)
		return
	}
	if len(opportunities) == 0 {
		log.Println("Scan returned no opportunities")
		return
	}
	log.Printf("Scan returned %d opportunities", len(opportunities))

	for _, opp := range opportunities {
		if t.registry.Count() >= t.cfg.MaxPositions {
			break
		}
		t.evaluateOpportunity(account, opp)
	}
}

// dailyLossHalt applies the circuit breaker: no new entries after the account
// is down more than the configured fraction on the day. Alerts once per day.
func (t *Trader) dailyLossHalt(account *models.Account) bool {
	realized := decimal.Zero
	if t.journal != nil {
		startOfDay := t.now().UTC().Truncate(24 * time.Hour)
		r, err := t.journal.RealizedPnLSince(startOfDay)
		if err != nil {
			log.Printf("Warning: Could not read realized P&L: %v", err)
		} else {
			realized = r
		}
	}

	if !dailyLossBreached(account, realized, t.cfg.MaxDailyLoss) {
		return false
	}

	today := t.now().UTC().Truncate(24 * time.Hour)
	if !t.lossAlertDay.Equal(today) {
		t.lossAlertDay = today
		if t.notifier != nil {
			t.notifier.Notify(fmt.Sprintf("🛑 Daily loss limit reached (%.1f%%). No new entries today.", t.cfg.MaxDailyLoss*100))
		}
	}
	return true
}

// evaluateOpportunity runs the deep analysis on one candidate and enters on a
// confident GO.
func (t *Trader) evaluateOpportunity(account *models.Account, opp ai.Opportunity) {
	if t.registry.Get(opp.Symbol) != nil {
		log.Printf("[%s] Already tracked, skipping", opp.Symbol)
		return
	}

	decision, err := t.ai.AnalyzeSymbol(opp.Symbol, t.symbolContext(opp))
	if err != nil {
		log.Printf("ERROR: [%s] Analysis failed: %v", opp.Symbol, err)
		return
	}

	if decision.Decision != "GO" {
		log.Printf("[%s] NO-GO: %s", opp.Symbol, decision.Reasoning)
		return
	}
	if decision.Confidence < minConfidence {
		log.Printf("[%s] GO but confidence %.0f below %.0f, skipping", opp.Symbol, decision.Confidence, minConfidence)
		return
	}

	t.enterPosition(account, decision)
}

// enterPosition sizes and submits the bracket buy, then registers the exit
// targets with the decision's levels.
func (t *Trader) enterPosition(account *models.Account, decision *ai.Decision) {
	symbol := decision.Symbol

	quote, err := t.provider.GetQuote(symbol)
	if err != nil {
		log.Printf("ERROR: [%s] Failed to get quote: %v", symbol, err)
		return
	}
	if quote.BidPrice.LessThanOrEqual(decimal.Zero) || quote.AskPrice.LessThan(quote.BidPrice) {
		log.Printf("Warning: [%s] Unusable quote bid=%s ask=%s, skipping", symbol, quote.BidPrice, quote.AskPrice)
		return
	}

	spread := quote.AskPrice.Sub(quote.BidPrice).Div(quote.BidPrice)
	if spread.GreaterThan(decimal.NewFromFloat(t.cfg.MaxSlippagePct)) {
		log.Printf("[%s] Spread %s%% exceeds slippage limit, skipping", symbol, spread.Mul(decimal.NewFromInt(100)).StringFixed(2))
		return
	}

	// A market buy fills near the ask; size and derive levels from it.
	entry := quote.AskPrice
	strategy := positions.ParseStrategy(decision.StrategyType)

	stop := decimal.NewFromFloat(decision.StopLoss)
	if stop.LessThanOrEqual(decimal.Zero) || stop.GreaterThanOrEqual(entry) {
		stop = entry.Mul(one.Sub(decimal.NewFromFloat(t.cfg.StopLossPct)))
	}
	target1 := decimal.NewFromFloat(decision.Target1)
	if target1.LessThanOrEqual(entry) {
		target1 = entry.Mul(one.Add(decimal.NewFromFloat(t.cfg.TakeProfit1Pct)))
	}

	qty := positionSize(account, entry, stop, decision.PositionSizePct, decision.Confidence, t.cfg.MaxPositionRisk)
	if qty.LessThan(one) {
		log.Printf("[%s] Position sizes below one share, skipping", symbol)
		return
	}

	order, err := t.provider.PlaceBracketBuy(symbol, qty, stop, target1)
	if err != nil {
		log.Printf("ERROR: [%s] Bracket buy failed: %v", symbol, err)
		return
	}
	log.Printf("[%s] BUY %s @ ~$%s submitted (order %s, status %s)", symbol, qty, entry.StringFixed(2), order.ID, order.Status)

	if t.journal != nil {
		t.journal.RecordEntry(symbol, qty, entry, strategy.String(), order.ID)
	}

	t.registry.Register(symbol, entry, strategy, stop, target1)

	if t.notifier != nil {
		t.notifier.Notify(fmt.Sprintf("🟢 BUY %s: %s shares @ ~$%s (%s, confidence %.0f)\nStop $%s / TP1 $%s\n%s",
			symbol, qty, entry.StringFixed(2), strategy, decision.Confidence,
			stop.StringFixed(2), target1.StringFixed(2), decision.Reasoning))
	}
}

// marketContext builds the scan prompt context from account state plus a
// budgeted news search.
func (t *Trader) marketContext(account *models.Account, openPositions int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Equity: $%s\n", account.Equity.StringFixed(2))
	fmt.Fprintf(&b, "Buying power: $%s\n", account.BuyingPower.StringFixed(2))
	fmt.Fprintf(&b, "Open positions: %d of %d\n", openPositions, t.cfg.MaxPositions)

	for _, r := range t.search.Search("US stock market today momentum movers catalysts", 5) {
		fmt.Fprintf(&b, "News: %s — %s\n", r.Title, r.Snippet)
	}
	return b.String()
}

// symbolContext builds the per-symbol analysis context: the scan's catalyst
// plus targeted search results.
func (t *Trader) symbolContext(opp ai.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalyst from scan (score %.0f): %s\n", opp.Score, opp.Catalyst)

	if price, err := t.provider.GetPrice(opp.Symbol); err == nil {
		fmt.Fprintf(&b, "Current price: $%s\n", price.StringFixed(2))
	}

	for _, r := range t.search.Search(opp.Symbol+" stock news catalyst", 3) {
		fmt.Fprintf(&b, "News: %s — %s\n", r.Title, r.Snippet)
	}
	return b.String()
}
