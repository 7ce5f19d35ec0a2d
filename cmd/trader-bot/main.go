package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"momentum_trading/internal/ai"
	"momentum_trading/internal/config"
	"momentum_trading/internal/journal"
	"momentum_trading/internal/logger"
	"momentum_trading/internal/market/alpaca"
	"momentum_trading/internal/positions"
	"momentum_trading/internal/search"
	"momentum_trading/internal/telegram"
	"momentum_trading/internal/trader"
)

const LogFile = "trader.log"

// main wires the bot together and runs one of two modes:
//
//	trader-bot          run the bot (decision loop + exit monitor)
//	trader-bot analyze  print performance metrics from the journal and exit
func main() {
	cfg := config.Load()
	logger.Setup(LogFile, cfg.MaxLogSizeMB, cfg.MaxLogBackups)

	if len(os.Args) > 1 && os.Args[1] == "analyze" {
		analyze(cfg)
		return
	}

	run(cfg)
}

func run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dependencies
	provider := alpaca.NewProvider()
	alerter := telegram.NewAlerter(cfg.TelegramToken, cfg.TelegramChatID, cfg.DiscordWebhookURL)

	jnl, err := journal.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	defer jnl.Close()

	registry := positions.NewRegistry(positions.ParamsFromConfig(cfg))
	evaluator := positions.NewEvaluator(positions.ParamsFromConfig(cfg), registry)
	executor := positions.NewExecutor(provider, registry, jnl, alerter)
	monitor := positions.NewMonitor(provider, registry, evaluator, executor,
		time.Duration(cfg.MonitorIntervalSec)*time.Second)

	aiClient := ai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	searchClient := search.NewClient(cfg.SearchAPIKey, cfg.SearchDailyBudget)
	decisionLoop := trader.New(cfg, provider, registry, aiClient, searchClient, jnl, alerter)

	// Graceful shutdown on SIGINT/SIGTERM
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Println("Shutdown signal received")
		cancel()
	}()

	mode := "exit monitoring only (no LLM key)"
	if aiClient != nil {
		mode = "autonomous"
	}
	log.Printf("Trader bot starting, mode: %s", mode)
	alerter.SystemStatus("STARTED", fmt.Sprintf("mode: %s, monitor %ds, scan %dm", mode, cfg.MonitorIntervalSec, cfg.ScanIntervalMins))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		decisionLoop.Run(ctx)
	}()
	wg.Wait()

	alerter.SystemStatus("STOPPED", "open positions remain tracked at the broker")
	log.Println("Trader bot stopped")
}

// analyze prints realized performance from the trade journal.
func analyze(cfg *config.Config) {
	jnl, err := journal.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	defer jnl.Close()

	m, err := jnl.PerformanceMetrics()
	if err != nil {
		log.Fatalf("CRITICAL: Could not compute metrics: %v", err)
	}

	fmt.Println("=== Performance ===")
	fmt.Printf("Exits:     %d (%d wins / %d losses)\n", m.TotalExits, m.Wins, m.Losses)
	fmt.Printf("Win rate:  %.1f%%\n", m.WinRate*100)
	fmt.Printf("Total P&L: $%s\n", m.TotalPnL.StringFixed(2))
	fmt.Printf("Avg win:   $%s\n", m.AvgWin.StringFixed(2))
	fmt.Printf("Avg loss:  $%s\n", m.AvgLoss.StringFixed(2))
}
