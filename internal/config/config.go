package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port" validate:"required,numeric"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
	HTTPTimeout     time.Duration `json:"http_timeout" validate:"gt=0"`

	// Storage
	DBPath     string `json:"db_path" validate:"required"`
	ExportPath string `json:"export_path" validate:"required"`

	// Engine
	Window        time.Duration `json:"window" validate:"gt=0"`
	MinBodyLength int           `json:"min_body_length" validate:"gte=1"`

	// Sources
	SourceLimit      int      `json:"source_limit" validate:"gte=1,lte=100"`
	DevToTags        []string `json:"devto_tags"`
	RedditSubreddits []string `json:"reddit_subreddits"`
	ArXivCategories  []string `json:"arxiv_categories"`
	FetchSchedule    string   `json:"fetch_schedule"`

	// Redis configuration
	RedisURL       string        `json:"redis_url"`
	RedisPrefix    string        `json:"redis_prefix"`
	CacheTTL       time.Duration `json:"cache_ttl"`
	MaxConcurrency int           `json:"max_concurrency" validate:"gte=1"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint" validate:"omitempty,url"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"r2_secret_key"`
	R2Bucket    string `json:"r2_bucket"`

	// AI Configuration
	AIApiKey     string        `json:"ai_api_key"`
	AIModel      string        `json:"ai_model" validate:"required"`
	AITimeout    time.Duration `json:"ai_timeout" validate:"gt=0"`
	AIMaxRetries int           `json:"ai_max_retries" validate:"gte=1,lte=10"`

	// Ranking
	RelevanceProfilePath string           `json:"relevance_profile"`
	Relevance            RelevanceProfile `json:"-"`

	// Logging
	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error disabled"`
	LogFile  string `json:"log_file"`

	// Security
	AdminAPIKey string `json:"admin_api_key"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{
		// Server configuration
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),

		// Storage
		DBPath:     getEnv("DB_PATH", "./data/postgen.db"),
		ExportPath: getEnv("EXPORT_PATH", "./drafts"),

		// Engine
		Window:        getEnvAsDuration("WINDOW", 7*24*time.Hour),
		MinBodyLength: getEnvAsInt("MIN_BODY_LENGTH", 100),

		// Sources
		SourceLimit:      getEnvAsInt("SOURCE_LIMIT", 25),
		DevToTags:        getEnvAsList("DEVTO_TAGS", []string{"devops", "cloud", "ai", "machinelearning"}),
		RedditSubreddits: getEnvAsList("REDDIT_SUBREDDITS", []string{"MachineLearning", "devops", "aws", "datascience"}),
		ArXivCategories:  getEnvAsList("ARXIV_CATEGORIES", []string{"cs.AI", "cs.LG", "cs.CL"}),
		FetchSchedule:    getEnv("FETCH_SCHEDULE", ""),

		// Redis configuration
		RedisURL:       getEnv("REDIS_URL", ""),
		RedisPrefix:    getEnv("REDIS_PREFIX", "postgen:seen:"),
		CacheTTL:       getEnvAsDuration("CACHE_TTL", 720*time.Hour), // 30 days
		MaxConcurrency: getEnvAsInt("MAX_CONCURRENCY", 5),

		// CloudFlare R2 Configuration
		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", ""),

		// AI Configuration
		AIApiKey:     getEnv("AI_API_KEY", ""),
		AIModel:      getEnv("AI_MODEL", "gemini-2.0-flash"),
		AITimeout:    getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		AIMaxRetries: getEnvAsInt("AI_MAX_RETRIES", 3),

		RelevanceProfilePath: getEnv("RELEVANCE_PROFILE", ""),

		// Logging
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:  getEnv("LOG_FILE", ""),

		// Security
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
	}

	profile, err := LoadRelevanceProfile(cfg.RelevanceProfilePath)
	if err != nil {
		return nil, err
	}
	cfg.Relevance = profile

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the struct tags and the cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.ArchiveEnabled() && (c.R2AccessKey == "" || c.R2SecretKey == "") {
		return fmt.Errorf("R2_BUCKET is set but R2 credentials are missing")
	}
	return c.Relevance.Validate()
}

// ArchiveEnabled reports whether exported drafts are also uploaded to R2/S3
func (c *Config) ArchiveEnabled() bool {
	return c.R2Bucket != ""
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := ParseWindow(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsList(name string, defaultVal []string) []string {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// ParseWindow parses a Go duration and additionally accepts a day suffix ("7d").
func ParseWindow(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		if days <= 0 {
			return 0, fmt.Errorf("window must be positive, got %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("window must be positive, got %q", s)
	}
	return d, nil
}
