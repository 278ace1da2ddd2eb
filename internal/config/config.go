package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Drive     DriveConfig     `json:"drive"`
	Gotenberg GotenbergConfig `json:"gotenberg"`
	Archive   ArchiveConfig   `json:"archive"`
	Locks     LockConfig      `json:"locks"`
	Sweep     SweepConfig     `json:"sweep"`
	Log       LogConfig       `json:"log"`
}

type ServerConfig struct {
	Port         string   `json:"port"`
	Environment  string   `json:"environment"`
	BaseURL      string   `json:"base_url"`
	AllowOrigins []string `json:"allow_origins"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// DriveConfig holds the global Drive fallback used when a tenant has no
// credentials of its own.
type DriveConfig struct {
	CredentialsPath string `json:"credentials_path"`
	RootFolderID    string `json:"root_folder_id"`
	ClientCacheSize int    `json:"client_cache_size"`
}

type GotenbergConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

type ArchiveConfig struct {
	Backend string `json:"backend"` // none, gcs or s3

	GCSBucket          string `json:"gcs_bucket"`
	GCSCredentialsPath string `json:"gcs_credentials_path"`

	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"-"`
	S3SecretKey string `json:"-"`
}

type LockConfig struct {
	Backend       string `json:"backend"` // local or redis
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redis_db"`
	TTL           string `json:"ttl"`
}

// SweepConfig controls the expiry of abandoned pending generations. A zero
// MaxAge disables the sweeper.
type SweepConfig struct {
	Interval string `json:"interval"`
	MaxAge   string `json:"max_age"`
}

type LogConfig struct {
	Level string `json:"level"`
}

func (d *DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
	}
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	driver := getEnv("DB_DRIVER", "mysql")
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			BaseURL:      getEnv("BASE_URL", ""),
			AllowOrigins: parseAllowOrigins(),
		},
		Database: DatabaseConfig{
			Driver:   driver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", defaultPort),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "dip_easy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Drive: DriveConfig{
			CredentialsPath: getEnv("DRIVE_CREDENTIALS_PATH", ""),
			RootFolderID:    getEnv("DRIVE_ROOT_FOLDER_ID", ""),
			ClientCacheSize: getEnvInt("DRIVE_CLIENT_CACHE_SIZE", 128),
		},
		Gotenberg: GotenbergConfig{
			URL:     getEnv("GOTENBERG_URL", "http://localhost:3000"),
			Timeout: getEnv("GOTENBERG_TIMEOUT", "30s"),
		},
		Archive: ArchiveConfig{
			Backend:            getEnv("ARCHIVE_BACKEND", "none"),
			GCSBucket:          getEnv("GCS_BUCKET_NAME", ""),
			GCSCredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
			S3Bucket:           getEnv("S3_BUCKET", ""),
			S3Region:           getEnv("S3_REGION", "auto"),
			S3Endpoint:         getEnv("S3_ENDPOINT", ""),
			S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		},
		Locks: LockConfig{
			Backend:       getEnv("LOCK_BACKEND", "local"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			TTL:           getEnv("LOCK_TTL", "30s"),
		},
		Sweep: SweepConfig{
			Interval: getEnv("SWEEP_INTERVAL", "1h"),
			MaxAge:   getEnv("SWEEP_MAX_AGE", "24h"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if config.Drive.ClientCacheSize <= 0 {
		return nil, fmt.Errorf("DRIVE_CLIENT_CACHE_SIZE must be positive, got %d", config.Drive.ClientCacheSize)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Printf("Warning: invalid integer for %s=%q, using %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func parseAllowOrigins() []string {
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		var allowOrigins []string
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowOrigins = append(allowOrigins, trimmed)
			}
		}
		return allowOrigins
	}

	// Fallback to individual FRONTEND_URL_* variables for backward compatibility
	var allowOrigins []string

	if url1 := getEnv("FRONTEND_URL_1", ""); url1 != "" {
		allowOrigins = append(allowOrigins, url1)
	}

	if url2 := getEnv("FRONTEND_URL_2", ""); url2 != "" {
		allowOrigins = append(allowOrigins, url2)
	}

	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}

	return allowOrigins
}
