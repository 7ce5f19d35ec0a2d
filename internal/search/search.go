// Package search wraps a web-search API behind a daily credit budget.
// Search never returns an error: on exhausted budget, missing key or any
// transport failure it returns an empty result set, and the caller trades
// without the enrichment.
package search

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.tavily.com"

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"content"`
}

type Client struct {
	apiKey      string
	dailyBudget int
	baseURL     string
	httpClient  *http.Client

	mu   sync.Mutex
	used int
	day  time.Time // UTC date the counter belongs to

	now func() time.Time
}

// NewClient builds a search client. Returns nil when no key is configured.
func NewClient(apiKey string, dailyBudget int) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:      apiKey,
		dailyBudget: dailyBudget,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		now:         time.Now,
	}
}

// Search runs one query, spending one credit. The counter resets at UTC
// midnight.
func (c *Client) Search(query string, maxResults int) []Result {
	if c == nil || !c.spendCredit() {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"api_key":     c.apiKey,
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil
	}

	resp, err := c.httpClient.Post(c.baseURL+"/search", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Printf("Warning: Search failed for %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Warning: Search API returned %d for %q", resp.StatusCode, query)
		return nil
	}

	var parsed struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("Warning: Search decode failed for %q: %v", query, err)
		return nil
	}
	if len(parsed.Results) > maxResults {
		parsed.Results = parsed.Results[:maxResults]
	}
	return parsed.Results
}

// Remaining reports the credits left today.
func (c *Client) Remaining() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDayLocked()
	return c.dailyBudget - c.used
}

func (c *Client) spendCredit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDayLocked()
	if c.used >= c.dailyBudget {
		log.Printf("Warning: Search budget exhausted (%d/day), skipping until tomorrow", c.dailyBudget)
		return false
	}
	c.used++
	return true
}

func (c *Client) rollDayLocked() {
	today := c.now().UTC().Truncate(24 * time.Hour)
	if !today.Equal(c.day) {
		c.day = today
		c.used = 0
	}
}
