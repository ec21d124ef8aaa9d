// Package config loads application configuration from environment
// variables. A .env file in the working directory is honored when present
// so local development does not need exported variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the HTTP server binary.
//
// Fields:
//  Env            – application environment (e.g. "dev", "prod").
//  Port           – HTTP port to listen on.
//  JWTSecret      – secret used to verify staff access tokens.
//  TablesFile     – CSV template with the static table inventory.
//  BackupFile     – CSV file the calendar is backed up to and restored from.
//  BackupInterval – how often the server flushes a backup; 0 disables the
//                   periodic flush (a final backup on shutdown still runs).
type Config struct {
	Env            string
	Port           string
	JWTSecret      string
	TablesFile     string
	BackupFile     string
	BackupInterval time.Duration
}

// Load reads the server configuration. Required variables are enforced by
// must(); missing values cause the process to exit with a fatal log
// message, since serving traffic with a partial configuration would only
// fail later and less clearly.
func Load() Config {
	loadDotEnv()
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		JWTSecret:      must("JWT_SECRET"),
		TablesFile:     must("TABLES_FILE"),
		BackupFile:     envStr("BACKUP_FILE", "backup_tables.csv"),
		BackupInterval: envDur("BACKUP_INTERVAL", 10*time.Minute),
	}
}

// BotConfig holds the runtime configuration of the Telegram bot binary.
//
// Fields:
//  Token       – Telegram Bot API token.
//  GroupChatID – chat confirmed bookings are announced to; 0 disables the
//                announcement.
//  TablesFile  – CSV template with the static table inventory.
//  BackupFile  – CSV file the calendar is backed up to and restored from.
type BotConfig struct {
	Token       string
	GroupChatID int64
	TablesFile  string
	BackupFile  string
}

// LoadBot reads the bot configuration, applying the same fail-fast policy
// as Load.
func LoadBot() BotConfig {
	loadDotEnv()
	return BotConfig{
		Token:       must("TELEGRAM_API_TOKEN"),
		GroupChatID: envInt64("GROUP_CHAT_ID", 0),
		TablesFile:  must("TABLES_FILE"),
		BackupFile:  envStr("BACKUP_FILE", "backup_tables.csv"),
	}
}

// loadDotEnv loads a .env file when one exists. Absence is not an error:
// deployed processes get their environment from the orchestrator.
func loadDotEnv() {
	if err := godotenv.Load(); err == nil {
		log.Printf("config: loaded environment from .env")
	}
}

// must retrieves a required environment variable and exits when it is unset
// or empty.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
