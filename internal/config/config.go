// Package config загружает конфигурацию сервера из окружения.
// Файл .env подхватывается при наличии, иначе используются реальные
// переменные окружения и значения по умолчанию.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	ProxyUpstreams  map[string]string // chain -> базовый URL внешнего explorer/RPC API
	Addr            string            // адрес HTTP сервера
	DBPath          string            // путь к файлу SQLite
	CachePath       string            // путь к bbolt кешу прокси
	PublicURL       string            // базовый URL сайта для ссылок в письмах и редиректов
	SuperuserEmails []string          // allow-list email'ов суперпользователей
	ProxyCacheTTL   time.Duration
	LogLevel        slog.Level
}

// Load reads configuration from a .env file (if present) and the environment
func Load() (*Config, error) {
	// best-effort: без .env продолжаем с окружением и дефолтами
	_ = godotenv.Load()

	cfg := &Config{
		Addr:            getEnv("ADDRLENS_ADDR", ":8080"),
		DBPath:          getEnv("ADDRLENS_DB_PATH", "addrlens.db"),
		CachePath:       getEnv("ADDRLENS_CACHE_PATH", "proxy_cache.db"),
		PublicURL:       strings.TrimRight(getEnv("ADDRLENS_PUBLIC_URL", "http://localhost:8080"), "/"),
		SuperuserEmails: splitList(os.Getenv("ADDRLENS_SUPERUSERS")),
		ProxyUpstreams:  parseUpstreams(getEnv("ADDRLENS_PROXY_UPSTREAMS", defaultUpstreams)),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}

	ttl, err := time.ParseDuration(getEnv("ADDRLENS_PROXY_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADDRLENS_PROXY_CACHE_TTL: %w", err)
	}
	cfg.ProxyCacheTTL = ttl

	return cfg, nil
}

// defaultUpstreams публичные API, которые сайт проксирует из-за CORS
const defaultUpstreams = "eth=https://api.etherscan.io,btc=https://blockstream.info/api"

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList разбирает список через запятую, пустые элементы отбрасываются
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseUpstreams разбирает "chain=url,chain=url"
func parseUpstreams(raw string) map[string]string {
	upstreams := make(map[string]string)
	for _, part := range splitList(raw) {
		chain, url, ok := strings.Cut(part, "=")
		if !ok || chain == "" || url == "" {
			continue
		}
		upstreams[strings.ToLower(chain)] = strings.TrimRight(url, "/")
	}
	return upstreams
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
