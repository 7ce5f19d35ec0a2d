// Package ai is the LLM decision collaborator: it proposes trade ideas and
// per-symbol GO/NO-GO decisions. It is a black box to the position core,
// which only ever sees the Decision record.
package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for an OpenAI-compatible chat completions
// endpoint. Returns nil if no API key is configured, which disables
// autonomous entries.
func NewClient(apiKey, model, baseURL string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

const scanSystemPrompt = `You are a momentum stock scanner. Given the market context, respond with JSON:
{"opportunities": [{"symbol": "...", "catalyst": "...", "opportunity_score": 0-100}]}
List at most 5 liquid US equities with a concrete near-term catalyst. No penny stocks.`

const analysisSystemPrompt = `You are a trading analyst. Analyze the given symbol and respond with JSON:
{"decision": "GO" or "NO-GO", "symbol": "...", "confidence": 0-100,
 "position_size_pct": 0.0-1.0, "entry_price": 0.0, "stop_loss": 0.0,
 "target_1": 0.0, "strategy_type": "standard"|"aggressive"|"scalp", "reasoning": "..."}
Be selective: NO-GO is the default. stop_loss must be below entry_price, target_1 above.`

// ScanOpportunities asks the model for trade ideas given a market context
// blob (account state, session, optional search notes).
func (c *Client) ScanOpportunities(marketContext string) ([]Opportunity, error) {
	text, err := c.complete(scanSystemPrompt, "Market context:\n"+marketContext)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Opportunities []Opportunity `json:"opportunities"`
	}
	if err := json.Unmarshal(extractJSON(text), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse scan output: %v. Raw: %s", err, text)
	}
	return parsed.Opportunities, nil
}

// AnalyzeSymbol runs the deep analysis for one candidate.
func (c *Client) AnalyzeSymbol(symbol, context string) (*Decision, error) {
	text, err := c.complete(analysisSystemPrompt, fmt.Sprintf("Symbol: %s\nContext:\n%s", symbol, context))
	if err != nil {
		return nil, err
	}

	var d Decision
	if err := json.Unmarshal(extractJSON(text), &d); err != nil {
		return nil, fmt.Errorf("failed to parse analysis output: %v. Raw: %s", err, text)
	}
	if d.Symbol == "" {
		d.Symbol = symbol
	}
	return &d, nil
}

func (c *Client) complete(system, user string) (string, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.3,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", c.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("AI API error %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in AI response")
	}
	return result.Choices[0].Message.Content, nil
}

// extractJSON strips markdown fences the model sometimes wraps around its
// JSON despite the response_format hint.
func extractJSON(text string) []byte {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return []byte(strings.TrimSpace(text))
}
