package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	AutoMigrate bool
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	LeadsBase   string
	LeadsKey    string
	LeadsRPS    int
	Remote      bool
	Workers     int
	PageSize    int
	SeedFile    string
	ScanSource  string
	ScanRegion  string
	ExportDir   string
	CacheTTL    time.Duration
	CORSOrigins []string
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return fromEnv()
}

func fromEnv() Config {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/mytravel?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC"),
		AutoMigrate: envBool("AUTO_MIGRATE", true),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),
		LeadsBase:   env("LEADS_API_BASE_URL", "http://localhost:8000/api"),
		LeadsKey:    env("LEADS_API_KEY", ""),
		LeadsRPS:    atoi("LEADS_API_RPS", 5),
		Remote:      envBool("INGEST_REMOTE", true),
		Workers:     atoi("INGEST_WORKERS", 8),
		PageSize:    atoi("INGEST_PAGE_SIZE", 100),
		SeedFile:    env("SEED_FILE", ""),
		ScanSource:  env("SCAN_SOURCE", ""),
		ScanRegion:  env("SCAN_REGION", "Almaty"),
		ExportDir:   env("EXPORT_DIR", "."),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		CORSOrigins: list("CORS_ORIGINS", []string{"*"}),
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.PageSize < 1 || c.PageSize > 200 {
		c.PageSize = 100
	}
	if c.LeadsKey == "" {
		log.Warn().Msg("LEADS_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func list(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
