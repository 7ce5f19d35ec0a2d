package positions

import (
	"time"

	"momentum_trading/internal/config"

	"github.com/shopspring/decimal"
)

// Strategy selects the target-derivation profile for a position.
type Strategy int

const (
	StrategyStandard Strategy = iota
	StrategyAggressive
	StrategyScalp
)

func (s Strategy) String() string {
	switch s {
	case StrategyAggressive:
		return "aggressive"
	case StrategyScalp:
		return "scalp"
	default:
		return "standard"
	}
}

// ParseStrategy maps a strategy label from a decision record to the enum.
// Unknown labels fall back to standard.
func ParseStrategy(s string) Strategy {
	switch s {
	case "aggressive":
		return StrategyAggressive
	case "scalp":
		return StrategyScalp
	default:
		return StrategyStandard
	}
}

// ExitParams holds the configured exit percentages and the time-stop window.
// Percentages are fractions: 0.03 means 3%.
type ExitParams struct {
	StopLossPct     decimal.Decimal
	TakeProfit1Pct  decimal.Decimal
	TakeProfit2Pct  decimal.Decimal
	TakeProfit3Pct  decimal.Decimal
	TrailingStopPct decimal.Decimal
	TimeStop        time.Duration
}

// ParamsFromConfig converts the float config surface into decimal params.
func ParamsFromConfig(cfg *config.Config) ExitParams {
	return ExitParams{
		StopLossPct:     decimal.NewFromFloat(cfg.StopLossPct),
		TakeProfit1Pct:  decimal.NewFromFloat(cfg.TakeProfit1Pct),
		TakeProfit2Pct:  decimal.NewFromFloat(cfg.TakeProfit2Pct),
		TakeProfit3Pct:  decimal.NewFromFloat(cfg.TakeProfit3Pct),
		TrailingStopPct: decimal.NewFromFloat(cfg.TrailingStopPct),
		TimeStop:        time.Duration(cfg.TimeStopMinutes) * time.Minute,
	}
}

// Targets is the set of price levels derived for a new position.
type Targets struct {
	Stop decimal.Decimal
	TP1  decimal.Decimal
	TP2  decimal.Decimal
	TP3  decimal.Decimal
}

var one = decimal.NewFromInt(1)

// DeriveTargets computes stop-loss and three take-profit levels from the
// entry price. Explicit stop/tp1 overrides only apply to the standard
// strategy; zero means unset. The caller guarantees entry > 0.
func (p ExitParams) DeriveTargets(entry decimal.Decimal, strategy Strategy, explicitStop, explicitTP1 decimal.Decimal) Targets {
	switch strategy {
	case StrategyAggressive:
		// Wider stop, bigger targets for volatile names.
		return Targets{
			Stop: entry.Mul(decimal.NewFromFloat(0.95)),
			TP1:  entry.Mul(decimal.NewFromFloat(1.10)),
			TP2:  entry.Mul(decimal.NewFromFloat(1.20)),
			TP3:  entry.Mul(decimal.NewFromFloat(1.30)),
		}
	case StrategyScalp:
		// Tight stop, quick profits.
		return Targets{
			Stop: entry.Mul(decimal.NewFromFloat(0.98)),
			TP1:  entry.Mul(decimal.NewFromFloat(1.03)),
			TP2:  entry.Mul(decimal.NewFromFloat(1.05)),
			TP3:  entry.Mul(decimal.NewFromFloat(1.07)),
		}
	case StrategyStandard:
		fallthrough
	default:
		stop := explicitStop
		if stop.IsZero() {
			stop = entry.Mul(one.Sub(p.StopLossPct))
		}
		tp1 := explicitTP1
		if tp1.IsZero() {
			tp1 = entry.Mul(one.Add(p.TakeProfit1Pct))
		}
		return Targets{
			Stop: stop,
			TP1:  tp1,
			TP2:  entry.Mul(one.Add(p.TakeProfit2Pct)),
			TP3:  entry.Mul(one.Add(p.TakeProfit3Pct)),
		}
	}
}
