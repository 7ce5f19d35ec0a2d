// Package telegram sends human-facing alerts. Telegram is the primary
// channel; an optional Discord webhook mirrors every message. Missing
// credentials silently disable a channel — alerting must never take the bot
// down.
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type Alerter struct {
	token          string
	chatID         string
	discordWebhook string
	httpClient     *http.Client
}

func NewAlerter(token, chatID, discordWebhook string) *Alerter {
	if token == "" || chatID == "" {
		log.Println("Warning: Telegram credentials missing, Telegram alerts disabled")
	}
	return &Alerter{
		token:          token,
		chatID:         chatID,
		discordWebhook: discordWebhook,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends a message to every configured channel. Satisfies
// positions.Notifier.
func (a *Alerter) Notify(text string) {
	a.sendTelegram(text)
	a.sendDiscord(text)
}

// ErrorAlert prefixes error messages so they stand out in the chat.
func (a *Alerter) ErrorAlert(text string) {
	a.Notify("⚠️ ERROR: " + text)
}

// SystemStatus reports lifecycle transitions (startup, shutdown).
func (a *Alerter) SystemStatus(status, details string) {
	a.Notify(fmt.Sprintf("🤖 SYSTEM %s: %s", status, details))
}

func (a *Alerter) sendTelegram(text string) {
	if a.token == "" || a.chatID == "" {
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", a.token)
	payload := map[string]string{
		"chat_id":    a.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, _ := json.Marshal(payload)

	resp, err := a.httpClient.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("Telegram alert failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("Telegram API error: status %s", resp.Status)
	}
}

func (a *Alerter) sendDiscord(text string) {
	if a.discordWebhook == "" {
		return
	}

	body, _ := json.Marshal(map[string]string{"content": text})
	resp, err := a.httpClient.Post(a.discordWebhook, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("Discord alert failed: %v", err)
		return
	}
	resp.Body.Close()
}
