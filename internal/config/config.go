package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds application configuration from environment. All three binaries
// (store, gateway, notifier) read the same struct; each uses the fields it needs.
type Config struct {
	HTTPPort string

	// Store
	DatabaseURL  string
	DBPoolSize   int
	RedisURL     string
	ListCacheTTL int // seconds

	// Broker
	KafkaBrokers    []string
	KafkaPartitions int

	// Gateway
	BackendURL    string
	ImageURL      string
	ImageDir      string
	CacheDuration int // seconds

	// Notifier
	WebhookURL string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = &Config{
			HTTPPort:        getEnv("HTTP_PORT", "3000"),
			DatabaseURL:     os.Getenv("DATABASE_URL"),
			DBPoolSize:      getIntEnv("DB_POOL_SIZE", 20),
			RedisURL:        os.Getenv("REDIS_URL"),
			ListCacheTTL:    getIntEnv("LIST_CACHE_TTL_SEC", 30),
			KafkaBrokers:    getSliceEnv("KAFKA_BROKERS", ""),
			KafkaPartitions: getIntEnv("KAFKA_PARTITIONS", 1),
			BackendURL:      getEnv("TODO_BACKEND_URL", "http://todo-backend-svc:3000"),
			ImageURL:        getEnv("IMAGE_URL", "https://picsum.photos/1200"),
			ImageDir:        getEnv("IMAGE_DIR", "/var/lib/data"),
			CacheDuration:   getIntEnv("CACHE_DURATION_SEC", 600),
			WebhookURL:      os.Getenv("DISCORD_WEBHOOK_URL"),
		}
	})
	return cfg
}

// LoadEnvFile reads a .env file and sets env vars (only if not already set).
// Missing file is not an error.
func LoadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
			val = strings.Trim(val, `"`)
		} else if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
			val = strings.Trim(val, "'")
		}
		if key != "" && os.Getenv(key) == "" {
			_ = os.Setenv(key, val)
		}
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key, defaultVal string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
