package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	ServerPort string

	JWTSecret          string
	AccessTokenMaxAge  int
	LegacyIDTokens     bool
	CORSAllowedOrigins []string
	FrontendPath       string

	RedisURL    string
	WorkerCount int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	accessTokenMaxAge, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_MAX_AGE"))
	if err != nil || accessTokenMaxAge <= 0 {
		accessTokenMaxAge = 86400
	}

	workerCount, err := strconv.Atoi(os.Getenv("WORKER_COUNT"))
	if err != nil || workerCount <= 0 {
		workerCount = 2
	}

	legacy := false
	if v := os.Getenv("AUTH_LEGACY_ID_TOKENS"); v != "" {
		legacy, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_LEGACY_ID_TOKENS %q: %w", v, err)
		}
	}

	cfg := &Config{
		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		ServerPort: getEnv("SERVER_PORT", "8000"),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		AccessTokenMaxAge:  accessTokenMaxAge,
		LegacyIDTokens:     legacy,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		FrontendPath:       getEnv("FRONTEND_PATH", "index.html"),

		RedisURL:    os.Getenv("REDIS_URL"),
		WorkerCount: workerCount,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
	}

	if cfg.JWTSecret == "" && !cfg.LegacyIDTokens {
		return nil, fmt.Errorf("JWT_SECRET is required unless AUTH_LEGACY_ID_TOKENS is enabled")
	}

	return cfg, nil
}

// DSN returns the connection string for the configured driver. SQLite
// connections always have foreign keys enforced.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite3" {
		dsn := c.DatabaseURL
		if dsn == "" {
			dsn = "hobbyhub.db"
		}
		return withForeignKeys(dsn)
	}
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// withForeignKeys sets _foreign_keys=on on a go-sqlite3 DSN, replacing any
// _foreign_keys or _fk option already present.
func withForeignKeys(dsn string) string {
	path, rawQuery, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		params = url.Values{}
	}
	params.Del("_fk")
	params.Set("_foreign_keys", "on")
	return path + "?" + params.Encode()
}

// MediaEnabled reports whether all R2 settings are present.
func (c *Config) MediaEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
