package trader

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"momentum_trading/internal/ai"
	"momentum_trading/internal/config"
	"momentum_trading/internal/models"
	"momentum_trading/internal/positions"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider implements market.Provider for decision-loop tests.
type mockProvider struct {
	clockOpen bool
	account   models.Account
	quote     models.Quote
	positions []models.BrokerPosition
	buys      []buyCall
}

type buyCall struct {
	Symbol string
	Qty    decimal.Decimal
	Stop   decimal.Decimal
	TP     decimal.Decimal
}

func (m *mockProvider) GetPrice(symbol string) (decimal.Decimal, error) {
	return m.quote.AskPrice, nil
}
func (m *mockProvider) GetQuote(symbol string) (*models.Quote, error) {
	q := m.quote
	q.Symbol = symbol
	return &q, nil
}
func (m *mockProvider) GetClock() (*models.Clock, error) {
	return &models.Clock{IsOpen: m.clockOpen}, nil
}
func (m *mockProvider) GetAccount() (*models.Account, error) {
	a := m.account
	return &a, nil
}
func (m *mockProvider) ListPositions() ([]models.BrokerPosition, error) {
	return m.positions, nil
}
func (m *mockProvider) PlaceBracketBuy(symbol string, qty, stopLoss, takeProfit decimal.Decimal) (*models.Order, error) {
	m.buys = append(m.buys, buyCall{Symbol: symbol, Qty: qty, Stop: stopLoss, TP: takeProfit})
	return &models.Order{ID: fmt.Sprintf("order-%d", len(m.buys)), Symbol: symbol, Qty: qty, Status: "accepted"}, nil
}
func (m *mockProvider) PlaceMarketSell(symbol string, qty decimal.Decimal) (*models.Order, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeJournal struct {
	entries  []string
	realized decimal.Decimal
}

func (j *fakeJournal) RecordEntry(symbol string, qty, price decimal.Decimal, strategy, orderID string) {
	j.entries = append(j.entries, fmt.Sprintf("%s/%s/%s", symbol, qty, strategy))
}
func (j *fakeJournal) RealizedPnLSince(cutoff time.Time) (decimal.Decimal, error) {
	return j.realized, nil
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(text string) { n.messages = append(n.messages, text) }

// aiStub serves an OpenAI-compatible endpoint with canned scan and analysis
// answers, telling the two apart by the system prompt.
type aiStub struct {
	calls    int
	decision string
	conf     float64
}

func (s *aiStub) handler(w http.ResponseWriter, r *http.Request) {
	s.calls++

	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	var content string
	if strings.Contains(req.Messages[0].Content, "scanner") {
		content = `{"opportunities": [{"symbol": "AAPL", "catalyst": "earnings beat", "opportunity_score": 80}]}`
	} else {
		content = fmt.Sprintf(`{"decision": %q, "symbol": "AAPL", "confidence": %v,
			"position_size_pct": 0.2, "entry_price": 100, "stop_loss": 97,
			"target_1": 105, "strategy_type": "standard", "reasoning": "momentum"}`,
			s.decision, s.conf)
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
}

func testConfig() *config.Config {
	return &config.Config{
		StopLossPct:      0.03,
		TakeProfit1Pct:   0.05,
		TakeProfit2Pct:   0.10,
		TakeProfit3Pct:   0.15,
		TrailingStopPct:  0.02,
		TimeStopMinutes:  180,
		ScanIntervalMins: 15,
		MaxPositions:     5,
		MaxPositionRisk:  0.01,
		MaxDailyLoss:     0.05,
		MaxSlippagePct:   0.005,
	}
}

func newTraderFixture(t *testing.T, stub *aiStub) (*Trader, *mockProvider, *positions.Registry, *fakeJournal, *fakeNotifier) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(server.Close)

	cfg := testConfig()
	provider := &mockProvider{
		clockOpen: true,
		account:   models.Account{Equity: d(100_000), LastEquity: d(100_000), BuyingPower: d(200_000)},
		quote:     models.Quote{BidPrice: d(99.90), AskPrice: d(100)},
	}
	registry := positions.NewRegistry(positions.ParamsFromConfig(cfg))
	journal := &fakeJournal{realized: decimal.Zero}
	notifier := &fakeNotifier{}

	aiClient := ai.NewClient("test-key", "test-model", server.URL)
	require.NotNil(t, aiClient)

	tr := New(cfg, provider, registry, aiClient, nil, journal, notifier)
	return tr, provider, registry, journal, notifier
}

func TestPoll_EntersOnConfidentGo(t *testing.T) {
	tr, provider, registry, journal, notifier := newTraderFixture(t, &aiStub{decision: "GO", conf: 85})

	tr.Poll()

	require.Len(t, provider.buys, 1)
	buy := provider.buys[0]
	assert.Equal(t, "AAPL", buy.Symbol)
	// Equity 100k x 20% x 0.85 confidence = $17k at $100/share.
	assert.True(t, buy.Qty.Equal(d(170)), "got %s", buy.Qty)
	assert.True(t, buy.Stop.Equal(d(97)), "decision stop is used")
	assert.True(t, buy.TP.Equal(d(105)), "decision target is used")

	target := registry.Get("AAPL")
	require.NotNil(t, target, "entry must be registered for exit tracking")
	assert.True(t, target.StopLoss.Equal(d(97)))
	assert.True(t, target.TakeProfit1.Equal(d(105)))

	require.Len(t, journal.entries, 1)
	assert.Equal(t, "AAPL/170/standard", journal.entries[0])
	assert.NotEmpty(t, notifier.messages)
}

func TestPoll_MarketClosedSkipsScan(t *testing.T) {
	stub := &aiStub{decision: "GO", conf: 85}
	tr, provider, _, _, _ := newTraderFixture(t, stub)
	provider.clockOpen = false

	tr.Poll()

	assert.Zero(t, stub.calls, "closed market must not spend LLM calls")
	assert.Empty(t, provider.buys)
}

func TestPoll_NoGoDecisionDoesNotBuy(t *testing.T) {
	tr, provider, registry, _, _ := newTraderFixture(t, &aiStub{decision: "NO-GO", conf: 90})

	tr.Poll()

	assert.Empty(t, provider.buys)
	assert.Nil(t, registry.Get("AAPL"))
}

func TestPoll_LowConfidenceGoSkipped(t *testing.T) {
	tr, provider, _, _, _ := newTraderFixture(t, &aiStub{decision: "GO", conf: 40})

	tr.Poll()

	assert.Empty(t, provider.buys)
}

func TestPoll_WideSpreadSkipsEntry(t *testing.T) {
	tr, provider, _, _, _ := newTraderFixture(t, &aiStub{decision: "GO", conf: 85})
	provider.quote = models.Quote{BidPrice: d(100), AskPrice: d(101)} // 1% spread

	tr.Poll()

	assert.Empty(t, provider.buys)
}

func TestPoll_MaxPositionsGate(t *testing.T) {
	stub := &aiStub{decision: "GO", conf: 85}
	tr, provider, registry, _, _ := newTraderFixture(t, stub)
	for i := 0; i < 5; i++ {
		registry.Register(fmt.Sprintf("SYM%d", i), d(50), positions.StrategyStandard, decimal.Zero, decimal.Zero)
	}

	tr.Poll()

	assert.Zero(t, stub.calls, "full book must not spend LLM calls")
	assert.Empty(t, provider.buys)
}

func TestPoll_AlreadyTrackedSymbolSkipped(t *testing.T) {
	stub := &aiStub{decision: "GO", conf: 85}
	tr, provider, registry, _, _ := newTraderFixture(t, stub)
	registry.Register("AAPL", d(95), positions.StrategyStandard, decimal.Zero, decimal.Zero)

	tr.Poll()

	assert.Equal(t, 1, stub.calls, "scan runs but no analysis for a tracked symbol")
	assert.Empty(t, provider.buys)
}

func TestPoll_DailyLossBreakerAlertsOnce(t *testing.T) {
	stub := &aiStub{decision: "GO", conf: 85}
	tr, provider, _, _, notifier := newTraderFixture(t, stub)
	provider.account.Equity = d(94_000) // 6% down on the day

	tr.Poll()
	tr.Poll()

	assert.Zero(t, stub.calls)
	assert.Empty(t, provider.buys)
	assert.Len(t, notifier.messages, 1, "breaker alert fires once per day")
}

func TestPoll_NoLLMConfiguredIsNoop(t *testing.T) {
	cfg := testConfig()
	provider := &mockProvider{clockOpen: true}
	registry := positions.NewRegistry(positions.ParamsFromConfig(cfg))

	tr := New(cfg, provider, registry, nil, nil, nil, nil)
	tr.Poll()

	assert.Empty(t, provider.buys)
}
