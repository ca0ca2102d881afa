package config

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Host        string `mapstructure:"HOST"`
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	GinMode     string `mapstructure:"GIN_MODE"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis
	RedisURL string `mapstructure:"REDIS_URL"`

	// Remote engine
	EngineBaseURL string `mapstructure:"ENGINE_BASE_URL"`
	EngineAPIKey  string `mapstructure:"ENGINE_API_KEY"`

	// JWT
	JWTSecret            string `mapstructure:"JWT_SECRET"`
	AccessTokenExpireMin int    `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8088")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("DATABASE_URL", "postgres://localhost:5432/kb_platform?sslmode=disable")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379")
	viper.SetDefault("ENGINE_BASE_URL", "http://localhost:9380/api/v1")
	viper.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 60)

	_ = viper.ReadInConfig()

	cfg := &Config{}
	for _, key := range []string{
		"HOST", "PORT", "ENVIRONMENT", "GIN_MODE", "DATABASE_URL", "REDIS_URL",
		"ENGINE_BASE_URL", "ENGINE_API_KEY", "JWT_SECRET", "ACCESS_TOKEN_EXPIRE_MINUTES",
	} {
		if val := os.Getenv(key); val != "" {
			viper.Set(key, val)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
