// Package config loads server settings from the environment, with optional
// .env file support for local development.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string
	DBPath            string
	StaticDir         string
	TranslatorURL     string
	TranslatorTimeout time.Duration
	PurgeInterval     time.Duration
	BotID             int64
	LogLevel          slog.Level
}

func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              ":8080",
		DBPath:            "psi.db",
		StaticDir:         "public",
		TranslatorURL:     "http://127.0.0.1:5000/traduccion",
		TranslatorTimeout: 10 * time.Second,
		PurgeInterval:     10 * time.Second,
		BotID:             1,
		LogLevel:          slog.LevelInfo,
	}

	if addr := os.Getenv("PSICHAT_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	if path := os.Getenv("PSICHAT_DB_PATH"); path != "" {
		cfg.DBPath = path
	}

	if dir := os.Getenv("PSICHAT_STATIC_DIR"); dir != "" {
		cfg.StaticDir = dir
	}

	if url := os.Getenv("PSICHAT_TRANSLATOR_URL"); url != "" {
		cfg.TranslatorURL = url
	}

	if timeoutStr := os.Getenv("PSICHAT_TRANSLATOR_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.TranslatorTimeout = timeout
		}
	}

	if intervalStr := os.Getenv("PSICHAT_PURGE_INTERVAL"); intervalStr != "" {
		if interval, err := time.ParseDuration(intervalStr); err == nil {
			cfg.PurgeInterval = interval
		}
	}

	if idStr := os.Getenv("PSICHAT_BOT_ID"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			cfg.BotID = id
		}
	}

	if levelStr := os.Getenv("PSICHAT_LOG_LEVEL"); levelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			cfg.LogLevel = level
		}
	}

	return cfg
}
