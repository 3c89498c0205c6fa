package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/docuflow/docuflow/internal/storage"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Documents DocumentsConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig carries object store settings plus the signed-URL and
// pending-upload lifetimes consumed by the upload service.
type StorageConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           bool
	Bucket           string
	SignedURLTTL     time.Duration
	UploadSessionTTL time.Duration
	RequestTimeout   time.Duration
}

// DocumentsConfig holds upload validation limits. An empty AllowedMIMETypes
// list disables the MIME allow-list check.
type DocumentsConfig struct {
	AllowedMIMETypes []string
	MaxFileSize      int64
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5020")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "docuflow")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("STORAGE_BUCKET", "docuflow")
	viper.SetDefault("SIGNED_URL_TTL", 900)
	viper.SetDefault("UPLOAD_SESSION_TTL", 3600)
	viper.SetDefault("STORAGE_REQUEST_TIMEOUT", 10)
	viper.SetDefault("DOCUMENTS_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png")
	viper.SetDefault("DOCUMENTS_MAX_FILE_SIZE", 20*1024*1024)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       0,
		},
		Storage: StorageConfig{
			Endpoint:         viper.GetString("STORAGE_ENDPOINT"),
			AccessKey:        viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:        viper.GetString("STORAGE_SECRET_KEY"),
			UseSSL:           viper.GetBool("STORAGE_USE_SSL"),
			Bucket:           viper.GetString("STORAGE_BUCKET"),
			SignedURLTTL:     time.Duration(viper.GetInt("SIGNED_URL_TTL")) * time.Second,
			UploadSessionTTL: time.Duration(viper.GetInt("UPLOAD_SESSION_TTL")) * time.Second,
			RequestTimeout:   time.Duration(viper.GetInt("STORAGE_REQUEST_TIMEOUT")) * time.Second,
		},
		Documents: DocumentsConfig{
			AllowedMIMETypes: splitCSV(viper.GetString("DOCUMENTS_ALLOWED_MIME_TYPES")),
			MaxFileSize:      viper.GetInt64("DOCUMENTS_MAX_FILE_SIZE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	return cfg, nil
}

// StorageClientConfig converts the loaded settings into the struct the
// storage package consumes.
func (c *Config) StorageClientConfig() *storage.Config {
	return &storage.Config{
		Endpoint:  c.Storage.Endpoint,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
		UseSSL:    c.Storage.UseSSL,
		Bucket:    c.Storage.Bucket,
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
