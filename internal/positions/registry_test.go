package positions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(defaultParams())
	fixed := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Register("AAPL", decimal.NewFromInt(100), StrategyStandard, decimal.Zero, decimal.Zero)

	target := r.Get("AAPL")
	require.NotNil(t, target)
	assert.Equal(t, "AAPL", target.Symbol)
	assert.True(t, target.StopLoss.Equal(decimal.NewFromFloat(97.0)))
	assert.True(t, target.HighestPrice.Equal(decimal.NewFromInt(100)), "highest seeded with entry")
	assert.False(t, target.TrailingArmed)
	assert.False(t, target.TP1Done)
	assert.Equal(t, fixed, target.RegisteredAt)

	assert.Nil(t, r.Get("MSFT"))
}

func TestRegistry_RegisterOverwritesState(t *testing.T) {
	r := NewRegistry(defaultParams())
	r.Register("AAPL", decimal.NewFromInt(100), StrategyStandard, decimal.Zero, decimal.Zero)

	target := r.Get("AAPL")
	target.TP1Done = true
	target.TrailingArmed = true

	// Re-registering (e.g. a fresh entry after a full round trip) resets
	// everything.
	r.Register("AAPL", decimal.NewFromInt(120), StrategyScalp, decimal.Zero, decimal.Zero)

	target = r.Get("AAPL")
	require.NotNil(t, target)
	assert.False(t, target.TP1Done)
	assert.False(t, target.TrailingArmed)
	assert.True(t, target.EntryPrice.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, StrategyScalp, target.Strategy)
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := NewRegistry(defaultParams())
	r.Register("AAPL", decimal.NewFromInt(100), StrategyStandard, decimal.Zero, decimal.Zero)

	r.Remove("AAPL")
	assert.Nil(t, r.Get("AAPL"))
	assert.Equal(t, 0, r.Count())

	// Second remove of an absent symbol must not panic or error.
	r.Remove("AAPL")
	r.Remove("NEVER_EXISTED")
}

func TestRegistry_ReconcileAdoptsDiscovered(t *testing.T) {
	// A position opened before the monitor started shows up in the broker
	// list with no registry entry; reconcile adopts it at the broker's
	// average entry with standard defaults.
	r := NewRegistry(defaultParams())

	added, removed := r.Reconcile(map[string]decimal.Decimal{
		"XYZ": decimal.NewFromInt(40),
	})

	assert.Equal(t, []string{"XYZ"}, added)
	assert.Empty(t, removed)

	target := r.Get("XYZ")
	require.NotNil(t, target)
	assert.Equal(t, StrategyStandard, target.Strategy)
	assert.True(t, target.StopLoss.Equal(decimal.NewFromFloat(38.8)), "stop: got %s", target.StopLoss)
	assert.True(t, target.TakeProfit1.Equal(decimal.NewFromFloat(42.0)), "tp1: got %s", target.TakeProfit1)
	assert.True(t, target.TakeProfit2.Equal(decimal.NewFromFloat(44.0)), "tp2: got %s", target.TakeProfit2)
	assert.True(t, target.TakeProfit3.Equal(decimal.NewFromFloat(46.0)), "tp3: got %s", target.TakeProfit3)
}

func TestRegistry_ReconcileDropsClosed(t *testing.T) {
	r := NewRegistry(defaultParams())
	r.Register("AAPL", decimal.NewFromInt(100), StrategyStandard, decimal.Zero, decimal.Zero)
	r.Register("TSLA", decimal.NewFromInt(200), StrategyAggressive, decimal.Zero, decimal.Zero)

	// TSLA was closed externally; only AAPL is still live.
	added, removed := r.Reconcile(map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(100),
	})

	assert.Empty(t, added)
	assert.Equal(t, []string{"TSLA"}, removed)
	assert.Nil(t, r.Get("TSLA"))
	assert.NotNil(t, r.Get("AAPL"))
}

func TestRegistry_ReconcileIdempotent(t *testing.T) {
	r := NewRegistry(defaultParams())
	live := map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(100),
		"XYZ":  decimal.NewFromInt(40),
	}

	added, removed := r.Reconcile(live)
	assert.Len(t, added, 2)
	assert.Empty(t, removed)

	// Mark some evaluator state so we can prove the second pass did not
	// re-register and wipe it.
	r.Get("AAPL").TP1Done = true

	added, removed = r.Reconcile(live)
	assert.Empty(t, added, "second reconcile must not re-register")
	assert.Empty(t, removed)
	assert.True(t, r.Get("AAPL").TP1Done, "existing state preserved")
	assert.Equal(t, 2, r.Count())
}
