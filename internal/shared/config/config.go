package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"resume-optimizer/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string   `yaml:"port"`
	CORSAllowOrigin []string `yaml:"cors_allow_origins"`
	Env             string   `yaml:"env"`
	PublicBaseURL   string   `yaml:"public_base_url"`

	ObjectStoreType string `yaml:"object_store"`
	LocalStoreDir   string `yaml:"local_store_dir"`
	URLSigningKey   string `yaml:"url_signing_key"`
	AWSRegion       string `yaml:"aws_region"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Prefix        string `yaml:"s3_prefix"`
	SSEKMSKeyID     string `yaml:"sse_kms_key_id"`
	MinIOEndpoint   string `yaml:"minio_endpoint"`
	MinIOAccessKey  string `yaml:"minio_access_key"`
	MinIOSecretKey  string `yaml:"minio_secret_key"`
	MinIOBucket     string `yaml:"minio_bucket"`
	MinIOUseSSL     bool   `yaml:"minio_use_ssl"`

	LLMProvider  string `yaml:"llm_provider"`
	LLMModel     string `yaml:"llm_model"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	Normalizer   string `yaml:"normalizer"`

	Renderer    string `yaml:"renderer"`
	PDFLatexBin string `yaml:"pdflatex_bin"`
	ScratchDir  string `yaml:"scratch_dir"`
	ChromePath  string `yaml:"chrome_path"`

	DatabaseURL    string        `yaml:"database_url"`
	SessionBackend string        `yaml:"session_backend"`
	RedisURL       string        `yaml:"redis_url"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	SignedURLTTL   time.Duration `yaml:"signed_url_ttl"`

	JWTSecret   string `yaml:"jwt_secret"`
	JWTAudience string `yaml:"jwt_audience"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:            "8080",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   "./data",
		LLMProvider:     "gemini",
		LLMModel:        "gemini-2.0-flash",
		Normalizer:      "delegated",
		Renderer:        "latex",
		PDFLatexBin:     "pdflatex",
		SessionBackend:  "memory",
		SessionTTL:      60 * time.Minute,
		SweepInterval:   5 * time.Minute,
		SignedURLTTL:    30 * time.Minute,
		JWTAudience:     "authenticated",
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and then
// environment variables, which win over file values.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()

	if cfg.Env == "production" && cfg.JWTSecret == "" {
		telemetry.Error("config.missing", map[string]any{"key": "SUPABASE_JWT_SECRET"})
	}
	return cfg, nil
}

// LoadFile reads a YAML config file on top of the defaults, without consulting the environment.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if err := cfg.mergeFile(path); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		c.CORSAllowOrigin = splitAndTrim(raw)
	}
	c.Env = getEnv("ENV", c.Env)
	c.PublicBaseURL = getEnv("PUBLIC_BASE_URL", c.PublicBaseURL)

	c.ObjectStoreType = getEnv("OBJECT_STORE", c.ObjectStoreType)
	c.LocalStoreDir = getEnv("LOCAL_STORE_DIR", c.LocalStoreDir)
	c.URLSigningKey = getEnv("URL_SIGNING_KEY", c.URLSigningKey)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Prefix = getEnv("S3_PREFIX", c.S3Prefix)
	c.SSEKMSKeyID = getEnv("SSE_KMS_KEY_ID", c.SSEKMSKeyID)
	c.MinIOEndpoint = getEnv("MINIO_ENDPOINT", c.MinIOEndpoint)
	c.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIOAccessKey)
	c.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", c.MinIOSecretKey)
	c.MinIOBucket = getEnv("MINIO_BUCKET", c.MinIOBucket)
	c.MinIOUseSSL = getBool("MINIO_USE_SSL", c.MinIOUseSSL)

	c.LLMProvider = getEnv("LLM_PROVIDER", c.LLMProvider)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.Normalizer = getEnv("SECTION_NORMALIZER", c.Normalizer)

	c.Renderer = getEnv("RENDERER", c.Renderer)
	c.PDFLatexBin = getEnv("PDFLATEX_BIN", c.PDFLatexBin)
	c.ScratchDir = getEnv("SCRATCH_DIR", c.ScratchDir)
	c.ChromePath = getEnv("CHROME_PATH", c.ChromePath)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SessionBackend = getEnv("SESSION_BACKEND", c.SessionBackend)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.SessionTTL = getDuration("SESSION_TTL", c.SessionTTL)
	c.SweepInterval = getDuration("SESSION_SWEEP_INTERVAL", c.SweepInterval)
	c.SignedURLTTL = getDuration("SIGNED_URL_TTL", c.SignedURLTTL)

	c.JWTSecret = getEnv("SUPABASE_JWT_SECRET", c.JWTSecret)
	c.JWTAudience = getEnv("JWT_AUDIENCE", c.JWTAudience)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

func (c *Config) normalize() {
	c.Env = normalizeEnv(c.Env)
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	c.LLMProvider = normalizeProvider(c.LLMProvider)
	c.SessionBackend = oneOf(c.SessionBackend, "memory", "memory", "redis")
	c.Renderer = oneOf(c.Renderer, "latex", "latex", "html")
	c.Normalizer = oneOf(c.Normalizer, "delegated", "delegated", "heuristic")
}

// IsProduction reports whether diagnostic detail must be withheld from clients.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// getDuration accepts Go durations ("90s") or a bare number of minutes.
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	return def
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
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "placeholder", "none", "off":
		return "placeholder"
	default:
		return "gemini"
	}
}

func oneOf(raw, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}
