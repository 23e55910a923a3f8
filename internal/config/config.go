package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	JWT      JWTConfig
	Auth     AuthConfig
	MongoDB  MongoDBConfig
	InfluxDB InfluxDBConfig
	S3       S3Config
	Email    EmailConfig
	DueSoon  DueSoonConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port       string
	Host       string
	CORSOrigin string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// AuthConfig controls the development token endpoint
type AuthConfig struct {
	MockEnabled bool
}

// MongoDBConfig holds MongoDB connection details
type MongoDBConfig struct {
	URI        string
	Username   string
	Password   string
	Host       string
	Port       string
	Database   string
	AuthSource string // Database to authenticate against (default: admin)
}

// Enabled reports whether a MongoDB backend was configured
func (c MongoDBConfig) Enabled() bool {
	return c.URI != "" || c.Host != ""
}

// InfluxDBConfig holds InfluxDB connection details for delivery metrics
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether metrics should be written to InfluxDB
func (c InfluxDBConfig) Enabled() bool {
	return c.URL != ""
}

// S3Config holds S3 connection details for attachment links
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for S3-compatible services like MinIO
	PresignTTL      time.Duration
}

// Enabled reports whether attachment references should be presigned
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// EmailConfig holds SendGrid settings for emailing offline recipients
type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// Enabled reports whether notification emails should be sent
func (c EmailConfig) Enabled() bool {
	return c.APIKey != ""
}

// DueSoonConfig controls the due-date reminder sweeper
type DueSoonConfig struct {
	Enabled  bool
	Schedule string // cron spec with seconds
	Window   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:       getEnv("PORT", "8000"),
			Host:       getEnv("HOST", "0.0.0.0"),
			CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvDuration("JWT_TTL", 7*24*time.Hour),
		},
		Auth: AuthConfig{
			MockEnabled: getEnvBool("AUTH_MOCK_ENABLED", false),
		},
		MongoDB: MongoDBConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Username:   getEnv("MONGODB_USERNAME", ""),
			Password:   getEnv("MONGODB_PASSWORD", ""),
			Host:       getEnv("MONGODB_HOST", ""),
			Port:       getEnv("MONGODB_PORT", "27017"),
			Database:   getEnv("MONGODB_DATABASE", "taskflow"),
			AuthSource: getEnv("MONGODB_AUTH_SOURCE", "admin"),
		},
		InfluxDB: InfluxDBConfig{
			URL:    getEnv("INFLUXDB2_URL", ""),
			Token:  getEnv("INFLUXDB2_TOKEN", ""),
			Org:    getEnv("INFLUXDB2_ORG", ""),
			Bucket: getEnv("INFLUXDB2_BUCKET", ""),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			PresignTTL:      getEnvDuration("S3_PRESIGN_TTL", 15*time.Minute),
		},
		Email: EmailConfig{
			APIKey:    getEnv("SENDGRID_API_KEY", ""),
			FromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
			FromName:  getEnv("SENDGRID_FROM_NAME", "TaskFlow"),
		},
		DueSoon: DueSoonConfig{
			Enabled:  getEnvBool("DUE_SOON_ENABLED", false),
			Schedule: getEnv("DUE_SOON_SCHEDULE", "0 */15 * * * *"),
			Window:   getEnvDuration("DUE_SOON_WINDOW", 24*time.Hour),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are present
func Validate(cfg *Config) error {
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if cfg.InfluxDB.Enabled() {
		if cfg.InfluxDB.Token == "" {
			return fmt.Errorf("INFLUXDB2_TOKEN is required when INFLUXDB2_URL is set")
		}
		if cfg.InfluxDB.Org == "" {
			return fmt.Errorf("INFLUXDB2_ORG is required when INFLUXDB2_URL is set")
		}
		if cfg.InfluxDB.Bucket == "" {
			return fmt.Errorf("INFLUXDB2_BUCKET is required when INFLUXDB2_URL is set")
		}
	}
	if cfg.S3.Enabled() {
		if cfg.S3.AccessKeyID == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID is required when S3_BUCKET is set")
		}
		if cfg.S3.SecretAccessKey == "" {
			return fmt.Errorf("S3_SECRET_ACCESS_KEY is required when S3_BUCKET is set")
		}
	}
	if cfg.Email.Enabled() && cfg.Email.FromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL is required when SENDGRID_API_KEY is set")
	}
	if cfg.DueSoon.Enabled && cfg.DueSoon.Window <= 0 {
		return fmt.Errorf("DUE_SOON_WINDOW must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}
