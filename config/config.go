package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	APIBaseURL     string
	APIToken       string
	OrganizationID string
	BranchID       string
	HTTPTimeout    time.Duration

	PollInterval    time.Duration
	RefreshInterval time.Duration
	PageSize        int

	Port              string
	CORSOrigins       []string
	PlaygroundIdleTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OpenAIKey string

	S3Bucket string
	S3Region string

	LogLevel  string
	LogPretty bool
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		APIBaseURL:        strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:3001/api"), "/"),
		APIToken:          getEnv("API_TOKEN", ""),
		OrganizationID:    getEnv("ORGANIZATION_ID", ""),
		BranchID:          getEnv("BRANCH_ID", ""),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		PollInterval:      getEnvDuration("POLL_INTERVAL", time.Second),
		RefreshInterval:   getEnvDuration("REFRESH_INTERVAL", 3*time.Second),
		PageSize:          getEnvInt("PAGE_SIZE", 20),
		Port:              getEnv("PORT", "8080"),
		CORSOrigins:       getEnvList("CORS_ORIGINS"),
		PlaygroundIdleTTL: getEnvDuration("PLAYGROUND_IDLE_TTL", 10*time.Minute),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnv("S3_REGION", "us-east-2"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvBool("LOG_PRETTY", false),
	}
}

// SetupLogging applies the configured level and output format to the global
// zerolog logger.
func (c *Config) SetupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
