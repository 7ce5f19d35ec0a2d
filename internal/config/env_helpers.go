package config

import (
	"log"
	"os"
	"strconv"
)

func getEnvAsString(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// Helper to get float64 env with default
func getEnvAsFloat64(key string, fallback float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float64 for config %s=%q, using default %f", key, valueStr, fallback)
		return fallback
	}
	return val
}

// Helper to get int env with default. Accepts float-formatted values
// ("180.0") because operators copy them from percentage configs.
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	if val, err := strconv.Atoi(valueStr); err == nil {
		return val
	}
	if fval, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return int(fval)
	}
	log.Printf("Warning: Invalid int for config %s=%q, using default %d", key, valueStr, fallback)
	return fallback
}
