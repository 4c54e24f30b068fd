package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	IndexURL   string
	ZipsDir    string
	FilesDir   string
	OutputJSON string
	DBPath     string
	BackupDir  string

	RulesProfile string
	RulesPath    string

	HTTPTimeoutMs    int
	HTTPRateLimitRPS int
	HTTPUserAgent    string
	HTTPMaxAttempts  int

	WatchIntervalMin int

	LogLevel       string
	LogDevelopment bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		IndexURL:   getEnv("NANPA_INDEX_URL", "https://www.nanpa.com/reports/co-code-reports/cocodes_assign"),
		ZipsDir:    getEnv("NANPA_ZIPS_DIR", filepath.Join(cwd, "nanpa_zips")),
		FilesDir:   getEnv("NANPA_FILES_DIR", filepath.Join(cwd, "nanpa_files")),
		OutputJSON: getEnv("OUTPUT_JSON", filepath.Join(cwd, "data.json")),
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "carriers.db")),
		BackupDir:  getEnv("BACKUP_DIR", filepath.Join(cwd, "backups")),

		RulesProfile: getEnv("RULES_PROFILE", "parent"),
		RulesPath:    getEnv("RULES_PATH", ""),

		HTTPTimeoutMs:    getEnvInt("HTTP_TIMEOUT_MS", 60000),
		HTTPRateLimitRPS: getEnvInt("HTTP_RATE_LIMIT_RPS", 2),
		HTTPUserAgent:    getEnv("HTTP_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) NANPA-Updater/1.2"),
		HTTPMaxAttempts:  getEnvInt("HTTP_MAX_ATTEMPTS", 5),

		WatchIntervalMin: getEnvInt("WATCH_INTERVAL_MIN", 24*60),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
