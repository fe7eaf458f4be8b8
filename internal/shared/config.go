package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	Storage        string // mysql|memory
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	ReviewsAPIBase string
	ReviewsToken   string
	ReviewsRPS     int
	CacheTTL       time.Duration
	SessionTTL     time.Duration
	WarmWorkers    int
	WarmProductIDs []string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true&charset=utf8mb4&loc=UTC"),
		Storage:        strings.ToLower(env("STORAGE", "mysql")),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		ReviewsAPIBase: env("REVIEWS_API_BASE_URL", "http://localhost:8081/api"),
		ReviewsToken:   env("REVIEWS_API_TOKEN", ""),
		ReviewsRPS:     atoi("REVIEWS_API_RPS", 20),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		SessionTTL:     time.Duration(atoi("SESSION_TTL_SECONDS", 1800)) * time.Second,
		WarmWorkers:    atoi("WARM_WORKERS", 8),
		WarmProductIDs: splitList(os.Getenv("WARM_PRODUCT_IDS")),
	}
	if c.Storage != "mysql" && c.Storage != "memory" {
		log.Warn().Str("storage", c.Storage).Msg("unknown STORAGE, falling back to memory")
		c.Storage = "memory"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// splitList parses a comma separated list, dropping blanks and duplicates.
func splitList(s string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
