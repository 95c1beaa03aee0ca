package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort        string
	CORSAllowedOrigin string

	// Storage（未設定の場合はインメモリストアを使用する）
	DatabaseURL string

	// Deal Source（未設定の場合は組み込みのフィクスチャを使用する）
	DealsURL     string
	FetchTimeout time.Duration
	FetchMaxSize int64

	// Gesture / Claim
	TearThreshold float64
	SnapbackDelay time.Duration

	// Feedback Sequencer
	LocalBurst  int
	GlobalBurst int
	ViewportW   float64
	ViewportH   float64

	// Simulators
	InventoryTick       time.Duration
	InventoryDropChance float64
	CountdownTick       time.Duration
	SocialTick          time.Duration
	SocialChance        float64
	NoticeTTL           time.Duration

	// Randomness（0の場合は現在時刻でシードする）
	RandomSeed int64

	// Rate Limit（req/min単位）
	RateLimitGeneral int
	RateLimitRedeem  int
}

// Load は環境変数からConfigを読み込む。
// 必須の環境変数はなく、すべての項目にデフォルト値がある。
// 確率・しきい値が不正な範囲の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:        getEnvString("SERVER_PORT", "8080"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		DealsURL:     os.Getenv("DEALS_URL"),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxSize: getEnvInt64("FETCH_MAX_SIZE", 1<<20),

		TearThreshold: getEnvFloat("TEAR_THRESHOLD", 100),
		SnapbackDelay: getEnvDuration("SNAPBACK_DELAY", 400*time.Millisecond),

		LocalBurst:  getEnvInt("LOCAL_BURST", 30),
		GlobalBurst: getEnvInt("GLOBAL_BURST", 60),
		ViewportW:   getEnvFloat("VIEWPORT_W", 390),
		ViewportH:   getEnvFloat("VIEWPORT_H", 844),

		InventoryTick:       getEnvDuration("INVENTORY_TICK", 4*time.Second),
		InventoryDropChance: getEnvFloat("INVENTORY_DROP_CHANCE", 0.2),
		CountdownTick:       getEnvDuration("COUNTDOWN_TICK", time.Minute),
		SocialTick:          getEnvDuration("SOCIAL_TICK", 8*time.Second),
		SocialChance:        getEnvFloat("SOCIAL_CHANCE", 0.4),
		NoticeTTL:           getEnvDuration("NOTICE_TTL", 3*time.Second),

		RandomSeed: getEnvInt64("RANDOM_SEED", 0),

		RateLimitGeneral: getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitRedeem:  getEnvInt("RATE_LIMIT_REDEEM", 10),
	}

	if cfg.InventoryDropChance < 0 || cfg.InventoryDropChance > 1 {
		return nil, fmt.Errorf("INVENTORY_DROP_CHANCE must be in [0,1], got %v", cfg.InventoryDropChance)
	}
	if cfg.SocialChance < 0 || cfg.SocialChance > 1 {
		return nil, fmt.Errorf("SOCIAL_CHANCE must be in [0,1], got %v", cfg.SocialChance)
	}
	if cfg.TearThreshold <= 0 {
		return nil, fmt.Errorf("TEAR_THRESHOLD must be positive, got %v", cfg.TearThreshold)
	}

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

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
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
