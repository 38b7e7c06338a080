package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"resume-analyzer/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	LogLevel        string

	DatabaseURL string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	RedisURL             string
	CacheTTL             time.Duration
	CacheNormalizeResume bool

	LLMProvider     string
	LLMModel        string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnalysisVersion string

	JWTSecret string
	JWTTTL    time.Duration

	QueueBackend      string
	SQSQueueURL       string
	AMQPURL           string
	AMQPQueue         string
	WorkerConcurrency int

	ShutdownTimeout time.Duration
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "CORS_ALLOW_ORIGINS", "DATABASE_URL",
	"OBJECT_STORE", "LOCAL_STORE_DIR", "AWS_REGION", "S3_BUCKET", "S3_PREFIX", "SSE_KMS_KEY_ID",
	"REDIS_URL", "CACHE_TTL", "CACHE_NORMALIZE_RESUME",
	"LLM_PROVIDER", "LLM_MODEL", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANALYSIS_VERSION",
	"JWT_SECRET", "JWT_TTL",
	"QUEUE_BACKEND", "SQS_QUEUE_URL", "AMQP_URL", "AMQP_QUEUE", "WORKER_CONCURRENCY",
	"SHUTDOWN_TIMEOUT",
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("CACHE_NORMALIZE_RESUME", false)
	v.SetDefault("LLM_PROVIDER", "gemini")
	v.SetDefault("ANALYSIS_VERSION", "ats:v1")
	v.SetDefault("JWT_TTL", "30m")
	v.SetDefault("AMQP_QUEUE", "resume-analyses")
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	return v
}

func fromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		telemetry.Error("config.database_url_missing", map[string]any{"env": env})
	}

	return Config{
		Port:                 v.GetString("PORT"),
		CORSAllowOrigin:      splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Env:                  env,
		LogLevel:             v.GetString("LOG_LEVEL"),
		DatabaseURL:          dbURL,
		ObjectStoreType:      normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:        v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:            v.GetString("AWS_REGION"),
		S3Bucket:             v.GetString("S3_BUCKET"),
		S3Prefix:             v.GetString("S3_PREFIX"),
		SSEKMSKeyID:          v.GetString("SSE_KMS_KEY_ID"),
		RedisURL:             strings.TrimSpace(v.GetString("REDIS_URL")),
		CacheTTL:             durationOr(v, "CACHE_TTL", 24*time.Hour),
		CacheNormalizeResume: v.GetBool("CACHE_NORMALIZE_RESUME"),
		LLMProvider:          normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:             v.GetString("LLM_MODEL"),
		GeminiAPIKey:         v.GetString("GEMINI_API_KEY"),
		OpenAIAPIKey:         v.GetString("OPENAI_API_KEY"),
		AnalysisVersion:      v.GetString("ANALYSIS_VERSION"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTTTL:               durationOr(v, "JWT_TTL", 30*time.Minute),
		QueueBackend:         normalizeQueueBackend(v.GetString("QUEUE_BACKEND")),
		SQSQueueURL:          v.GetString("SQS_QUEUE_URL"),
		AMQPURL:              v.GetString("AMQP_URL"),
		AMQPQueue:            v.GetString("AMQP_QUEUE"),
		WorkerConcurrency:    positiveOr(v.GetInt("WORKER_CONCURRENCY"), 4),
		ShutdownTimeout:      durationOr(v, "SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	d := v.GetDuration(key)
	if d <= 0 {
		return def
	}
	return d
}

func positiveOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "gemini"
	}
}

func normalizeQueueBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sqs":
		return "sqs"
	case "amqp", "rabbitmq":
		return "amqp"
	default:
		return ""
	}
}
