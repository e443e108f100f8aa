package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Structure comes from the YAML
// file; secrets and deploy-specific values may be overridden through the
// environment.
type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	API      APIConfig      `yaml:"api"`
	Shopper  SessionConfig  `yaml:"shopper"`
	Seller   SellerConfig   `yaml:"seller"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Database DatabaseConfig `yaml:"database"`
}

// BotConfig holds Telegram bot settings
type BotConfig struct {
	Token                string `yaml:"token" envconfig:"BOT_TOKEN"`
	DisappearingMessages bool   `yaml:"disappearing_messages"`
	MessageLimit         int    `yaml:"message_limit"`
}

// APIConfig holds the shop backend base URLs
type APIConfig struct {
	User           string `yaml:"user" envconfig:"API_USER_URL"`
	Order          string `yaml:"order" envconfig:"API_ORDER_URL"`
	Product        string `yaml:"product" envconfig:"API_PRODUCT_URL"`
	Category       string `yaml:"category" envconfig:"API_CATEGORY_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SessionConfig holds the user session lifetime; zero disables eviction
type SessionConfig struct {
	SessionTimeSeconds int `yaml:"session_time"`
}

// SellerConfig holds the seller session lifetime and the seller id list
type SellerConfig struct {
	SessionTimeSeconds int     `yaml:"session_time"`
	IDs                []int64 `yaml:"ids"`
}

// CatalogConfig holds the catalog refresh period; zero disables refresh
type CatalogConfig struct {
	UpdatePeriodSeconds int `yaml:"update_period"`
}

// DatabaseConfig holds local database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"-" envconfig:"DB_PASSWORD"`
}

// Load reads configuration from the YAML file at path, then applies
// environment overrides (a .env file is honored when present).
func Load(path string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	cfg.Database = DatabaseConfig{
		Host: "localhost",
		Port: "5432",
		Name: "botshop",
		User: "botshop",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	// Validate required fields
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.API.User == "" || cfg.API.Order == "" || cfg.API.Product == "" || cfg.API.Category == "" {
		return nil, fmt.Errorf("all api base URLs are required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Bot.MessageLimit <= 0 {
		cfg.Bot.MessageLimit = 1
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// ShopperSessionTime returns the shopper session lifetime as a duration.
func (c *Config) ShopperSessionTime() time.Duration {
	return time.Duration(c.Shopper.SessionTimeSeconds) * time.Second
}

// SellerSessionTime returns the seller session lifetime as a duration.
func (c *Config) SellerSessionTime() time.Duration {
	return time.Duration(c.Seller.SessionTimeSeconds) * time.Second
}

// CatalogUpdatePeriod returns the catalog refresh period as a duration.
func (c *Config) CatalogUpdatePeriod() time.Duration {
	return time.Duration(c.Catalog.UpdatePeriodSeconds) * time.Second
}

// APITimeout returns the backend request timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}
