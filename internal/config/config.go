// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Server
	ServerPort string

	// Auth
	APIKey        string
	TokenSecret   string
	TokenExpiry   time.Duration
	AdminUser     string
	AdminPassword string

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitWrite   int
	RateLimitToken   int

	// List
	ListDefaultLimit int
	ListMaxLimit     int

	// CORS
	CORSAllowedOrigin string
}

// defaultDatabaseURL はDATABASE_URL未設定時の単一ファイルSQLiteストア。
const defaultDatabaseURL = "sqlite://books.db"

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む（既存の環境変数が優先）。
// TOKEN_SECRETはAPIサーバーモードでのみ必須のため、ここでは検証しない
// （ValidateServeを参照）。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	cfg.DatabaseURL = getEnvString("DATABASE_URL", defaultDatabaseURL)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.TokenExpiry = getEnvDuration("TOKEN_EXPIRY", 30*time.Minute)
	cfg.AdminUser = getEnvString("ADMIN_USER", "admin")
	cfg.AdminPassword = getEnvString("ADMIN_PASSWORD", "admin")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 30)
	cfg.RateLimitToken = getEnvInt("RATE_LIMIT_TOKEN", 5)
	cfg.ListDefaultLimit = getEnvInt("LIST_DEFAULT_LIMIT", 20)
	cfg.ListMaxLimit = getEnvInt("LIST_MAX_LIMIT", 100)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// ValidateServe はAPIサーバーモードに必要な設定を検証する。
// トークン発行・検証に使うTOKEN_SECRETが未設定の場合はエラーを返す。
// ストアを直接操作するCLIデータコマンドはこの検証を必要としない。
func (c *Config) ValidateServe() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("required environment variables are not set: [TOKEN_SECRET]")
	}
	return nil
}

// IsSQLite はDatabaseURLが単一ファイルSQLiteストアを指す場合にtrueを返す。
func (c *Config) IsSQLite() bool {
	return strings.HasPrefix(c.DatabaseURL, "sqlite://")
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
