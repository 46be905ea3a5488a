// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Logging   LoggingConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	YouTube   YouTubeConfig
	Collector CollectorConfig
	Cache     CacheConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	APIKeys         []string
	MaxLimit        int
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// URL returns the database connection string.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig contains the Redis connection used by both the leaderboard
// cache and the collection task queue.
type RedisConfig struct {
	URL string
}

// YouTubeConfig contains YouTube Data API configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type YouTubeConfig struct {
	APIKey          string
	CountriesAPIKey string
	DailyQuota      int
	QuotaThreshold  int
	PageDelay       time.Duration
}

// CollectorConfig contains collection job configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type CollectorConfig struct {
	CallDelay              time.Duration
	CountryDelay           time.Duration
	RefreshBatchSize       int
	CreatorBatchSize       int
	RefreshMaxAge          time.Duration
	CreatorMaxAge          time.Duration
	SearchDiscoveryEnabled bool
}

// CacheConfig contains leaderboard response cache configuration.
type CacheConfig struct {
	TTL time.Duration
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.maxlimit", 100)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "trending")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	// YouTube
	viper.SetDefault("youtube.dailyquota", 10000)
	viper.SetDefault("youtube.quotathreshold", 90)
	viper.SetDefault("youtube.pagedelay", 50*time.Millisecond)

	// Collector
	viper.SetDefault("collector.calldelay", 100*time.Millisecond)
	viper.SetDefault("collector.countrydelay", 500*time.Millisecond)
	viper.SetDefault("collector.refreshbatchsize", 500)
	viper.SetDefault("collector.creatorbatchsize", 50)
	viper.SetDefault("collector.refreshmaxage", 30*time.Minute)
	viper.SetDefault("collector.creatormaxage", 12*time.Hour)
	// Search API costs 100 units per call and exhausts the daily quota quickly.
	viper.SetDefault("collector.searchdiscoveryenabled", false)

	// Cache
	viper.SetDefault("cache.ttl", 5*time.Minute)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
