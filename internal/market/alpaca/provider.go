package alpaca

import (
	"fmt"

	"momentum_trading/internal/market"
	"momentum_trading/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider implements the generic market.Provider interface for Alpaca.
type Provider struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
}

// Ensure Provider implements the interface
var _ market.Provider = (*Provider)(nil)

// NewProvider returns a new Alpaca provider. The SDK clients read
// APCA_API_KEY_ID / APCA_API_SECRET_KEY / APCA_API_BASE_URL from the
// environment, which config.Load has already validated.
func NewProvider() *Provider {
	return &Provider{
		mdClient:    marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{}),
	}
}

// --- Market Data ---

func (p *Provider) GetPrice(symbol string) (decimal.Decimal, error) {
	trade, err := p.mdClient.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return decimal.Zero, err
	}
	if trade == nil {
		return decimal.Zero, fmt.Errorf("no trade found for %s", symbol)
	}
	return decimal.NewFromFloat(trade.Price), nil
}

func (p *Provider) GetQuote(symbol string) (*models.Quote, error) {
	q, err := p.mdClient.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{})
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("no quote found for %s", symbol)
	}
	return &models.Quote{
		Symbol:    symbol,
		BidPrice:  decimal.NewFromFloat(q.BidPrice),
		AskPrice:  decimal.NewFromFloat(q.AskPrice),
		Timestamp: q.Timestamp,
	}, nil
}

func (p *Provider) GetClock() (*models.Clock, error) {
	c, err := p.tradeClient.GetClock()
	if err != nil {
		return nil, err
	}
	return &models.Clock{
		Timestamp: c.Timestamp,
		IsOpen:    c.IsOpen,
		NextOpen:  c.NextOpen,
		NextClose: c.NextClose,
	}, nil
}

func (p *Provider) GetAccount() (*models.Account, error) {
	a, err := p.tradeClient.GetAccount()
	if err != nil {
		return nil, err
	}
	return &models.Account{
		ID:          a.ID,
		Currency:    a.Currency,
		Equity:      a.Equity,
		LastEquity:  a.LastEquity,
		BuyingPower: a.BuyingPower,
		Cash:        a.Cash,
	}, nil
}

// --- Positions ---

func (p *Provider) ListPositions() ([]models.BrokerPosition, error) {
	alpacaPositions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, err
	}

	var result []models.BrokerPosition
	for _, x := range alpacaPositions {
		// The SDK exposes several fields as decimal pointers; nil means the
		// value was absent from the response.
		current := decimal.Zero
		if x.CurrentPrice != nil {
			current = *x.CurrentPrice
		}
		marketValue := decimal.Zero
		if x.MarketValue != nil {
			marketValue = *x.MarketValue
		}
		unrealizedPL := decimal.Zero
		if x.UnrealizedPL != nil {
			unrealizedPL = *x.UnrealizedPL
		}
		unrealizedPLPC := decimal.Zero
		if x.UnrealizedPLPC != nil {
			unrealizedPLPC = *x.UnrealizedPLPC
		}

		result = append(result, models.BrokerPosition{
			Symbol:         x.Symbol,
			Qty:            x.Qty,
			AvgEntryPrice:  x.AvgEntryPrice,
			CurrentPrice:   current,
			MarketValue:    marketValue,
			UnrealizedPL:   unrealizedPL,
			UnrealizedPLPC: unrealizedPLPC,
		})
	}
	return result, nil
}

// --- Execution ---

// PlaceBracketBuy submits a market buy with attached stop-loss and
// take-profit children. Zero stop/tp prices degrade to a plain market order.
func (p *Provider) PlaceBracketBuy(symbol string, qty, stopLoss, takeProfit decimal.Decimal) (*models.Order, error) {
	req := alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &qty,
		Side:          alpaca.Buy,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: "mt-" + uuid.NewString(),
	}

	if !stopLoss.IsZero() || !takeProfit.IsZero() {
		req.OrderClass = alpaca.Bracket
		if !takeProfit.IsZero() {
			req.TakeProfit = &alpaca.TakeProfit{LimitPrice: &takeProfit}
		}
		if !stopLoss.IsZero() {
			req.StopLoss = &alpaca.StopLoss{StopPrice: &stopLoss}
		}
	}

	o, err := p.tradeClient.PlaceOrder(req)
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func (p *Provider) PlaceMarketSell(symbol string, qty decimal.Decimal) (*models.Order, error) {
	o, err := p.tradeClient.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &qty,
		Side:          alpaca.Sell,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: "mt-" + uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

// --- Helpers ---

func mapOrder(o *alpaca.Order) *models.Order {
	if o == nil {
		return nil
	}

	qty := decimal.Zero
	if o.Qty != nil {
		qty = *o.Qty
	}
	var filledAvgPrice decimal.Decimal
	if o.FilledAvgPrice != nil {
		filledAvgPrice = *o.FilledAvgPrice
	}

	res := &models.Order{
		ID:             o.ID,
		ClientOrderID:  o.ClientOrderID,
		Symbol:         o.Symbol,
		Qty:            qty,
		FilledQty:      o.FilledQty,
		Type:           string(o.Type),
		Side:           string(o.Side),
		Status:         o.Status,
		FilledAvgPrice: filledAvgPrice,
		CreatedAt:      o.CreatedAt,
	}
	if o.FilledAt != nil {
		res.FilledAt = o.FilledAt
	}
	return res
}
