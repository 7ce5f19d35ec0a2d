package trader

import (
	"log"

	"momentum_trading/internal/models"

	"github.com/shopspring/decimal"
)

// positionSize computes the share quantity for a new entry. It starts from
// the decision's requested fraction of equity scaled by confidence, then caps
// the result so the loss at the stop never exceeds maxPositionRisk of equity,
// and finally caps by available buying power. Returns zero when the position
// would be below one whole share.
func positionSize(account *models.Account, entry, stop decimal.Decimal, sizePct, confidence, maxPositionRisk float64) decimal.Decimal {
	if entry.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	requested := decimal.NewFromFloat(sizePct)
	if requested.LessThanOrEqual(decimal.Zero) || requested.GreaterThan(one) {
		return decimal.Zero
	}

	// Confidence 60 -> 60% of the requested size, 100 -> full size.
	scale := decimal.NewFromFloat(confidence / 100)
	notional := account.Equity.Mul(requested).Mul(scale)

	// Risk cap: qty * (entry - stop) <= equity * maxPositionRisk.
	riskPerShare := entry.Sub(stop)
	if riskPerShare.GreaterThan(decimal.Zero) {
		maxRiskNotional := account.Equity.Mul(decimal.NewFromFloat(maxPositionRisk)).Div(riskPerShare).Mul(entry)
		if maxRiskNotional.LessThan(notional) {
			notional = maxRiskNotional
		}
	}

	if account.BuyingPower.LessThan(notional) {
		notional = account.BuyingPower
	}

	qty := notional.Div(entry).Floor()
	if qty.LessThan(one) {
		return decimal.Zero
	}
	return qty
}

// dailyLossBreached reports whether the account has lost more than
// maxDailyLoss of yesterday's closing equity, combining the broker's
// unrealized drawdown with today's realized P&L from the journal.
func dailyLossBreached(account *models.Account, realizedToday decimal.Decimal, maxDailyLoss float64) bool {
	if account.LastEquity.LessThanOrEqual(decimal.Zero) {
		return false
	}

	drawdown := account.LastEquity.Sub(account.Equity)
	if realizedToday.LessThan(decimal.Zero) && drawdown.LessThan(realizedToday.Neg()) {
		// Realized losses already settled into equity are covered by the
		// drawdown term; take whichever view is worse.
		drawdown = realizedToday.Neg()
	}

	limit := account.LastEquity.Mul(decimal.NewFromFloat(maxDailyLoss))
	if drawdown.GreaterThanOrEqual(limit) {
		log.Printf("RISK: Daily loss limit hit: down $%s against a $%s limit", drawdown.StringFixed(2), limit.StringFixed(2))
		return true
	}
	return false
}

var one = decimal.NewFromInt(1)
