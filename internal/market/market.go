package market

import (
	"momentum_trading/internal/models"

	"github.com/shopspring/decimal"
)

// Provider is the brokerage abstraction. Anything that implements these
// methods can back the bot: the live Alpaca client, a paper account, or a
// mock in tests. The core never touches SDK types directly.
type Provider interface {
	// Account / market state
	GetPrice(symbol string) (decimal.Decimal, error)
	GetQuote(symbol string) (*models.Quote, error)
	GetClock() (*models.Clock, error)
	GetAccount() (*models.Account, error)

	// Positions
	ListPositions() ([]models.BrokerPosition, error)

	// Execution
	PlaceBracketBuy(symbol string, qty, stopLoss, takeProfit decimal.Decimal) (*models.Order, error)
	PlaceMarketSell(symbol string, qty decimal.Decimal) (*models.Order, error)
}
