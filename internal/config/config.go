package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Shops     ShopsConfig     `yaml:"shops"`
	Redis     RedisConfig     `yaml:"redis"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Cohorts   CohortsConfig   `yaml:"cohorts"`
	Snapshots SnapshotsConfig `yaml:"snapshots"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WarehouseConfig holds Snowflake connection settings
type WarehouseConfig struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
}

// ShopsConfig holds the Postgres connection for account/shop metadata
type ShopsConfig struct {
	DatabaseURL string `yaml:"database_url"`
}

// RedisConfig holds the cache connection for ad-hierarchy metadata
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// ChannelsConfig defines channel classification membership. Both lists are
// matched case-insensitively. Managed is a subset of ad-spend; Load rejects
// a config that breaks that.
type ChannelsConfig struct {
	AdSpend []string `yaml:"ad_spend"`
	Managed []string `yaml:"managed"`
}

// CohortsConfig holds cohort computation settings
type CohortsConfig struct {
	MaxPeriods int `yaml:"max_periods"`
}

// SnapshotsConfig holds report snapshot cache and S3 archive settings
type SnapshotsConfig struct {
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	S3Enabled       bool   `yaml:"s3_enabled"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Region        string `yaml:"s3_region"`
	AWSProfile      string `yaml:"aws_profile"`
}

// DefaultAdSpendChannels are the channels with paid media spend attached.
// Used when the config file does not supply its own list.
var DefaultAdSpendChannels = []string{
	"meta-ads",
	"google-ads",
	"tiktok-ads",
	"pinterest-ads",
	"snapchat-ads",
	"microsoft-ads",
	"amazon-ads",
}

// DefaultManagedChannels are the ad-spend channels with programmatic
// budget/status control.
var DefaultManagedChannels = []string{
	"meta-ads",
	"google-ads",
	"tiktok-ads",
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Warehouse.Database == "" {
		cfg.Warehouse.Database = "VENON_DATA_LAKE"
	}
	if cfg.Warehouse.Schema == "" {
		cfg.Warehouse.Schema = "ATTRIBUTION"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 900
	}
	if cfg.Cohorts.MaxPeriods == 0 {
		cfg.Cohorts.MaxPeriods = 24
	}
	if cfg.Snapshots.CacheTTLSeconds == 0 {
		cfg.Snapshots.CacheTTLSeconds = 300
	}
	if len(cfg.Channels.AdSpend) == 0 {
		cfg.Channels.AdSpend = DefaultAdSpendChannels
	}
	if len(cfg.Channels.Managed) == 0 {
		cfg.Channels.Managed = DefaultManagedChannels
	}

	if err := validateChannels(cfg.Channels); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateChannels rejects a managed channel that is not also an ad-spend
// channel. A config that breaks the subset rule would misclassify every
// downstream filter decision for that channel.
func validateChannels(c ChannelsConfig) error {
	adSpend := make(map[string]bool, len(c.AdSpend))
	for _, ch := range c.AdSpend {
		adSpend[strings.ToLower(ch)] = true
	}
	for _, ch := range c.Managed {
		if !adSpend[strings.ToLower(ch)] {
			return fmt.Errorf("channels: managed channel %q is not in the ad_spend list", ch)
		}
	}
	return nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on the deploy host.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("WAREHOUSE_ACCOUNT"); v != "" {
		cfg.Warehouse.Account = v
	}
	if v := os.Getenv("WAREHOUSE_USER"); v != "" {
		cfg.Warehouse.User = v
	}
	if v := os.Getenv("WAREHOUSE_PASSWORD"); v != "" {
		cfg.Warehouse.Password = v
	}
	if v := os.Getenv("WAREHOUSE_DATABASE"); v != "" {
		cfg.Warehouse.Database = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Shops.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SNAPSHOTS_S3_BUCKET"); v != "" {
		cfg.Snapshots.S3Bucket = v
		cfg.Snapshots.S3Enabled = true
	}
	if v := os.Getenv("SNAPSHOTS_S3_REGION"); v != "" {
		cfg.Snapshots.S3Region = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}
