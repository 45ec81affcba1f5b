package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Worker   WorkerConfig
	HTTP     HTTPConfig
	Events   EventsConfig
	Features FeatureFlags
	Invite   InviteConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	FallbackModels []string
	MaxTokens      int
	Temperature    float32
	Timeout        time.Duration
	MaxRetries     int

	MaxConcurrentRequests int
	RequestsPerSecond     float64
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	StaleAfter   time.Duration
	BulkWorkers  int
}

type HTTPConfig struct {
	AllowedOrigins []string
}

type EventsConfig struct {
	RabbitMQURI string
	Exchange    string
}

type FeatureFlags struct {
	EnableLLM             bool
	EnableBatchProcessing bool
	EnableEvents          bool
	EnableWebSocket       bool
}

type InviteConfig struct {
	TTL time.Duration
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

// Load reads .env when present, then the process environment. It is meant to
// be called once per process.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string

	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	req := func(key string) string {
		v := get(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		if v := get(key); v != "" {
			return v
		}
		return def
	}
	intOpt := func(key string, def int) int {
		v := get(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return n
	}
	floatOpt := func(key string, def float64) float64 {
		v := get(key)
		if v == "" {
			return def
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return f
	}
	durOpt := func(key string, def time.Duration) time.Duration {
		v := get(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	boolOpt := func(key string, def bool) bool {
		v := get(key)
		if v == "" {
			return def
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return b
	}
	listOpt := func(key string, def []string) []string {
		v := get(key)
		if v == "" {
			return def
		}
		out := make([]string, 0)
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "learnfinity"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:                opt("DB_HOST", "localhost"),
		DBPort:                opt("DB_PORT", "5432"),
		DBName:                req("DB_NAME"),
		DBUser:                req("DB_USER"),
		DBPassword:            get("DB_PASSWORD"),
		DBSSLMode:             opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:        durOpt("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(intOpt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:          int32(intOpt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   durOpt("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   durOpt("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: durOpt("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:     req("JWT_ACCESS_SECRET"),
		RefreshSecret:    get("JWT_REFRESH_SECRET"),
		AccessExpiresIn:  durOpt("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		RefreshExpiresIn: durOpt("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: get("REDIS_PASSWORD"),
		DB:       intOpt("REDIS_DB", 0),
		TTL:      time.Duration(intOpt("REDIS_TTL", 600)) * time.Second,
	}

	cfg.Features = FeatureFlags{
		EnableLLM:             boolOpt("ENABLE_LLM", true),
		EnableBatchProcessing: boolOpt("ENABLE_BATCH_PROCESSING", false),
		EnableEvents:          boolOpt("ENABLE_EVENTS", false),
		EnableWebSocket:       boolOpt("ENABLE_WEBSOCKET", true),
	}

	llmKey := get("LLM_API_KEY")
	if cfg.Features.EnableLLM && llmKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	cfg.LLM = LLMConfig{
		APIKey:                llmKey,
		BaseURL:               opt("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		Model:                 opt("LLM_MODEL", "llama3-8b-8192"),
		FallbackModels:        listOpt("LLM_FALLBACK_MODELS", []string{"llama3-70b-8192"}),
		MaxTokens:             intOpt("LLM_MAX_TOKENS", 1500),
		Temperature:           float32(floatOpt("LLM_TEMPERATURE", 0.2)),
		Timeout:               durOpt("LLM_TIMEOUT", 60*time.Second),
		MaxRetries:            intOpt("LLM_MAX_RETRIES", 2),
		MaxConcurrentRequests: intOpt("LLM_MAX_CONCURRENT_REQUESTS", 5),
		RequestsPerSecond:     floatOpt("LLM_REQUESTS_PER_SECOND", 2),
	}

	cfg.Worker = WorkerConfig{
		Concurrency:  intOpt("WORKER_CONCURRENCY", 2),
		PollInterval: durOpt("WORKER_POLL_INTERVAL", 2*time.Second),
		MaxAttempts:  intOpt("WORKER_MAX_ATTEMPTS", 3),
		RetryDelay:   durOpt("WORKER_RETRY_DELAY", 30*time.Second),
		StaleAfter:   durOpt("WORKER_STALE_AFTER", 10*time.Minute),
		BulkWorkers:  intOpt("BULK_WORKERS", 4),
	}

	cfg.HTTP = HTTPConfig{
		AllowedOrigins: listOpt("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	cfg.Events = EventsConfig{
		RabbitMQURI: get("RABBITMQ_URI"),
		Exchange:    opt("RABBITMQ_EXCHANGE", "learnfinity.events"),
	}

	cfg.Invite = InviteConfig{
		TTL: durOpt("INVITE_TTL", 72*time.Hour),
	}

	if cfg.LLM.MaxTokens <= 0 {
		invalid = append(invalid, "LLM_MAX_TOKENS")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		invalid = append(invalid, "LLM_TEMPERATURE")
	}
	if cfg.LLM.MaxConcurrentRequests <= 0 {
		invalid = append(invalid, "LLM_MAX_CONCURRENT_REQUESTS")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}
