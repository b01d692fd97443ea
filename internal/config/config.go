package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	Port         string
	DBDriver     string // sqlite | postgres
	DBDSN        string
	JWTSecret    string
	TokenTTL     time.Duration
	MediaDir     string
	MaxFileSize  int64
	TemplatesDir string
	StaticDir    string
	LogFile      string
	CORSOrigins  string

	RedisAddr      string
	KafkaBrokers   []string
	KafkaTopic     string
	OutboxInterval time.Duration
}

func Load() Config {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg := Config{
		Port:           getenv("PORT", "8080"),
		DBDriver:       strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBDSN:          getenv("DB_DSN", "storefront.db"), // sqlite file in project root
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       getduration("TOKEN_TTL", 24*time.Hour),
		MediaDir:       getenv("MEDIA_DIR", "./uploads"),
		MaxFileSize:    getint64("MAX_FILE_SIZE", 5<<20),
		TemplatesDir:   getenv("TEMPLATES_DIR", "./web/templates"),
		StaticDir:      getenv("STATIC_DIR", "./web/static"),
		LogFile:        os.Getenv("LOG_FILE"),
		CORSOrigins:    getenv("CORS_ORIGINS", "http://localhost:8081,http://127.0.0.1:8081"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getenv("KAFKA_TOPIC", "storefront.orders"),
		OutboxInterval: getduration("OUTBOX_INTERVAL", 2*time.Second),
	}
	if cfg.JWTSecret == "" {
		log.Printf("[config] JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s REDIS_ADDR=%s KAFKA_BROKERS=%s",
		cfg.Port, cfg.DBDriver, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.RedisAddr, strings.Join(cfg.KafkaBrokers, ","))
	return cfg
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint64(key string, def int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getduration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
