package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	PostgresURI         string        `yaml:"postgres_uri"`
	RedisURI            string        `yaml:"redis_uri"`
	MongoURI            string        `yaml:"mongo_uri"`
	Port                string        `yaml:"port"`
	FrontendURL         string        `yaml:"frontend_url"`
	AllowedOrigins      []string      `yaml:"allowed_origins"` // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	Environment         string        `yaml:"env"`             // ENV: production, development, etc.
	TrustProxy          bool          `yaml:"trust_proxy"`     // read client IPs from X-Forwarded-For
	EncryptionKey       string        `yaml:"encryption_key"`  // base64 32-byte key for stored analysis text
	SessionTTL          time.Duration `yaml:"session_ttl"`
	PasswordResetURL    string        `yaml:"password_reset_url"` // link prefix mailed to users, token is appended
	CloudinaryName      string        `yaml:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string        `yaml:"cloudinary_api_key"`
	CloudinaryAPISecret string        `yaml:"cloudinary_api_secret"`
	Mood                MoodConfig    `yaml:"mood"`
	SMTP                SMTPConfig    `yaml:"smtp"`
}

// SMTPConfig is the outbound mail relay for password reset links. Without a
// host, reset links are only logged, which Validate refuses in production.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// MoodConfig controls the inference call and the mood filter.
type MoodConfig struct {
	GeminiAPIKey    string        `yaml:"gemini_api_key"`
	Model           string        `yaml:"model"`
	FilterThreshold float64       `yaml:"filter_threshold"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Defaults returns the configuration used when neither the YAML file nor
// the environment set a value.
func Defaults() *Config {
	return &Config{
		PostgresURI:      "postgres://localhost:5432/moodjournal?sslmode=disable",
		RedisURI:         "redis://localhost:6379/0",
		MongoURI:         "mongodb://localhost:27017/moodjournal",
		Port:             "8080",
		FrontendURL:      "http://localhost:8081",
		Environment:      "development",
		SessionTTL:       7 * 24 * time.Hour,
		PasswordResetURL: "moodjournal://auth/reset-password?token=",
		Mood: MoodConfig{
			Model:           "gemini-2.5-flash",
			FilterThreshold: 5,
			Timeout:         30 * time.Second,
		},
		SMTP: SMTPConfig{Port: 587},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Environment = strings.ToLower(strings.TrimSpace(getEnv("ENV", c.Environment)))
	c.PostgresURI = getEnv("POSTGRES_URI", c.PostgresURI)
	c.RedisURI = getEnv("REDIS_URI", c.RedisURI)
	c.MongoURI = getEnv("MONGODB_URI", getEnv("MONGO_URI", c.MongoURI))
	c.Port = getEnv("PORT", c.Port)
	c.FrontendURL = getEnv("FRONTEND_URL", c.FrontendURL)
	c.PasswordResetURL = getEnv("PASSWORD_RESET_URL", c.PasswordResetURL)
	c.CloudinaryName = getEnv("CLOUDINARY_CLOUD_NAME", c.CloudinaryName)
	c.CloudinaryAPIKey = getEnv("CLOUDINARY_API_KEY", c.CloudinaryAPIKey)
	c.CloudinaryAPISecret = getEnv("CLOUDINARY_API_SECRET", c.CloudinaryAPISecret)
	c.Mood.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.Mood.GeminiAPIKey)
	c.Mood.Model = getEnv("MOOD_MODEL", c.Mood.Model)
	c.EncryptionKey = getEnv("ENCRYPTION_KEY", c.EncryptionKey)
	c.SMTP.Host = getEnv("SMTP_HOST", c.SMTP.Host)
	c.SMTP.Username = getEnv("SMTP_USERNAME", c.SMTP.Username)
	c.SMTP.Password = getEnv("SMTP_PASSWORD", c.SMTP.Password)
	c.SMTP.From = getEnv("SMTP_FROM", c.SMTP.From)

	if origins := parseOrigins(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 {
		c.AllowedOrigins = origins
	}
	if len(c.AllowedOrigins) == 0 {
		for _, u := range []string{c.FrontendURL, getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(c.AllowedOrigins, u) {
				c.AllowedOrigins = append(c.AllowedOrigins, u)
			}
		}
	}

	if v := getEnv("TRUST_PROXY", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRUST_PROXY: %w", err)
		}
		c.TrustProxy = b
	}
	if v := getEnv("SESSION_TTL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	if v := getEnv("MOOD_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MOOD_TIMEOUT: %w", err)
		}
		c.Mood.Timeout = d
	}
	if v := getEnv("SMTP_PORT", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		c.SMTP.Port = n
	}
	if v := getEnv("MOOD_FILTER_THRESHOLD", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MOOD_FILTER_THRESHOLD: %w", err)
		}
		c.Mood.FilterThreshold = f
	}
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.Mood.FilterThreshold < 0 || c.Mood.FilterThreshold > 10 {
		return fmt.Errorf("mood filter threshold must be within 0-10, got %v", c.Mood.FilterThreshold)
	}
	if c.IsProduction() && !c.SMTPEnabled() {
		return fmt.Errorf("smtp host is required in production")
	}
	if c.SMTPEnabled() {
		if c.SMTP.From == "" {
			return fmt.Errorf("smtp from address must be set when smtp host is")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("smtp port out of range: %d", c.SMTP.Port)
		}
	}
	return nil
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// CloudinaryEnabled reports whether all avatar upload credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// SMTPEnabled reports whether reset links are delivered by mail.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
