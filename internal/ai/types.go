package ai

// Opportunity is one trade idea from a market scan.
type Opportunity struct {
	Symbol   string  `json:"symbol"`
	Catalyst string  `json:"catalyst"`
	Score    float64 `json:"opportunity_score"` // 0-100
}

// Decision is the structured output of a deep analysis on a single symbol.
// The position core consumes it verbatim; nothing here is re-derived.
type Decision struct {
	Decision        string  `json:"decision"` // GO or NO-GO
	Symbol          string  `json:"symbol"`
	Confidence      float64 `json:"confidence"`        // 0-100
	PositionSizePct float64 `json:"position_size_pct"` // fraction of equity, 0-1
	EntryPrice      float64 `json:"entry_price"`
	StopLoss        float64 `json:"stop_loss"`
	Target1         float64 `json:"target_1"`
	StrategyType    string  `json:"strategy_type"` // standard / aggressive / scalp
	Reasoning       string  `json:"reasoning"`
}
