package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerAddr  string `mapstructure:"SERVER_ADDR"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// CachePath is the directory for the embedded KV cache. Empty means
	// in-memory only, which is fine for a cache that is never authoritative.
	CachePath string `mapstructure:"CACHE_PATH"`

	MatchCacheTTLSeconds   int `mapstructure:"MATCH_CACHE_TTL_SECONDS"`
	ProfileCacheTTLSeconds int `mapstructure:"PROFILE_CACHE_TTL_SECONDS"`

	RateLimitMax           int `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindowSeconds int `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_ADDR", ":8080")
	viper.SetDefault("CACHE_PATH", "")
	viper.SetDefault("MATCH_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("PROFILE_CACHE_TTL_SECONDS", 900)
	viper.SetDefault("RATE_LIMIT_MAX", 30)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
