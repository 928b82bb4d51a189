// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Identity（リモート認証サービス）
	IdentityURL    string
	IdentityAPIKey string

	// Storage（オブジェクトストレージ）
	StorageURL    string
	StorageBucket string

	// Upload
	UploadMaxSize int64 // 画像1枚あたりの最大バイト数

	// Preview
	PreviewTTL time.Duration // 放置されたプレビューファイルの保持期間

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitSubmit  int

	// Server
	ServerPort string
	BaseURL    string

	// Outbound
	HTTPTimeout time.Duration

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.IdentityURL = os.Getenv("IDENTITY_URL")
	if cfg.IdentityURL == "" {
		missing = append(missing, "IDENTITY_URL")
	}

	cfg.IdentityAPIKey = os.Getenv("IDENTITY_API_KEY")
	if cfg.IdentityAPIKey == "" {
		missing = append(missing, "IDENTITY_API_KEY")
	}

	cfg.StorageURL = os.Getenv("STORAGE_URL")
	if cfg.StorageURL == "" {
		missing = append(missing, "STORAGE_URL")
	}

	cfg.StorageBucket = os.Getenv("STORAGE_BUCKET")
	if cfg.StorageBucket == "" {
		missing = append(missing, "STORAGE_BUCKET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.UploadMaxSize = getEnvInt64("UPLOAD_MAX_SIZE", 10485760)
	cfg.PreviewTTL = getEnvDuration("PREVIEW_TTL", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", 15*time.Second)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	// ベースURLの末尾スラッシュは正規化する
	cfg.IdentityURL = strings.TrimRight(cfg.IdentityURL, "/")
	cfg.StorageURL = strings.TrimRight(cfg.StorageURL, "/")

	return cfg, nil
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
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
