package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the bot. One instance is created
// at startup by Load and shared read-only afterwards.
type Config struct {
	// Broker
	AlpacaBaseURL string

	// Exit strategy (fractions, e.g. 0.03 = 3%)
	StopLossPct     float64
	TakeProfit1Pct  float64
	TakeProfit2Pct  float64
	TakeProfit3Pct  float64
	TrailingStopPct float64
	TimeStopMinutes int

	// Scheduling
	MonitorIntervalSec int
	ScanIntervalMins   int

	// Risk
	MaxPositions    int
	MaxPositionRisk float64
	MaxDailyLoss    float64
	MaxSlippagePct  float64

	// LLM decision service
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// Web search
	SearchAPIKey      string
	SearchDailyBudget int

	// Alerts
	TelegramToken     string
	TelegramChatID    string
	DiscordWebhookURL string

	// Logging / storage
	LogLevel      string
	MaxLogSizeMB  int64
	MaxLogBackups int
	DatabasePath  string
}

// Load reads the .env file (if present), validates required secrets and
// returns the populated Config. Missing required variables are fatal.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	required := []string{
		"APCA_API_KEY_ID",
		"APCA_API_SECRET_KEY",
		"APCA_API_BASE_URL",
	}

	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("CRITICAL: Missing required environment variables: %v", missing)
	}

	cfg := &Config{
		AlpacaBaseURL: os.Getenv("APCA_API_BASE_URL"),

		StopLossPct:     getEnvAsFloat64("STOP_LOSS_PERCENT", 0.03),
		TakeProfit1Pct:  getEnvAsFloat64("TAKE_PROFIT_PERCENT", 0.05),
		TakeProfit2Pct:  getEnvAsFloat64("TAKE_PROFIT_2_PERCENT", 0.10),
		TakeProfit3Pct:  getEnvAsFloat64("TAKE_PROFIT_3_PERCENT", 0.15),
		TrailingStopPct: getEnvAsFloat64("TRAILING_STOP_PERCENT", 0.02),
		TimeStopMinutes: getEnvAsInt("TIME_STOP_MINUTES", 180),

		MonitorIntervalSec: getEnvAsInt("MONITOR_INTERVAL_SEC", 10),
		ScanIntervalMins:   getEnvAsInt("SCAN_INTERVAL_MIN", 15),

		MaxPositions:    getEnvAsInt("MAX_POSITIONS", 5),
		MaxPositionRisk: getEnvAsFloat64("MAX_POSITION_RISK", 0.01),
		MaxDailyLoss:    getEnvAsFloat64("MAX_DAILY_LOSS", 0.05),
		MaxSlippagePct:  getEnvAsFloat64("MAX_SLIPPAGE_PCT", 0.005),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnvAsString("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: getEnvAsString("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		SearchAPIKey:      os.Getenv("SEARCH_API_KEY"),
		SearchDailyBudget: getEnvAsInt("SEARCH_DAILY_BUDGET", 100),

		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    os.Getenv("TELEGRAM_CHAT_ID"),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),

		LogLevel:      getEnvAsString("LOG_LEVEL", "INFO"),
		MaxLogSizeMB:  int64(getEnvAsInt("MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups: getEnvAsInt("MAX_LOG_BACKUPS", 5),
		DatabasePath:  getEnvAsString("DATABASE_PATH", "trading_bot.db"),
	}

	// time.NewTicker panics on a non-positive interval.
	if cfg.MonitorIntervalSec < 1 {
		log.Printf("Warning: MONITOR_INTERVAL_SEC must be at least 1, using default 10")
		cfg.MonitorIntervalSec = 10
	}
	if cfg.ScanIntervalMins < 1 {
		log.Printf("Warning: SCAN_INTERVAL_MIN must be at least 1, using default 15")
		cfg.ScanIntervalMins = 15
	}

	if cfg.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set. Autonomous entries disabled, exit monitoring only.")
	}

	return cfg
}
