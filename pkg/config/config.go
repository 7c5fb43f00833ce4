package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the configuration for a single AI provider.
type ProviderConfig struct {
	Name   string `yaml:"name"`
	ApiURL string `yaml:"api_url"`
	ApiKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ScraperConfig holds general scraper settings.
type ScraperConfig struct {
	BaseURL       string `yaml:"base_url"`
	Headless      bool   `yaml:"headless"`
	Workers       string `yaml:"workers"`
	RatePerMinute int    `yaml:"rate_per_minute"`
	MaxRetries    int    `yaml:"max_retries"`
}

// BaserowConfig holds the connection settings for the Baserow catalogue.
type BaserowConfig struct {
	BaseURL          string `yaml:"base_url"`
	ApiToken         string `yaml:"api_token"`
	CatalogueTableID int    `yaml:"catalogue_table_id"`
}

// KafkaConfig holds the optional queue sink settings.
type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

// SummarizerConfig selects the AI providers used for product copy.
type SummarizerConfig struct {
	PrimaryProvider   string           `yaml:"primary_provider"`
	FallbackProviders []string         `yaml:"fallback_providers"`
	Providers         []ProviderConfig `yaml:"providers"`
}

// Config is the complete structure for the settings.yaml file.
type Config struct {
	Scraper    ScraperConfig    `yaml:"scraper"`
	Baserow    BaserowConfig    `yaml:"baserow"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Server     struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	LogLevel string `yaml:"log_level"`
	CacheDB  string `yaml:"cache_db"`
}

// Load reads settings.yaml and applies environment overrides for secrets.
// A .env file next to the binary is honored when present.
func Load(filepath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config YAML: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if cfg.Baserow.ApiToken == "" {
		return nil, fmt.Errorf("baserow api token is required (settings.yaml or BASEROW_API_TOKEN)")
	}
	if cfg.Baserow.CatalogueTableID == 0 {
		return nil, fmt.Errorf("baserow catalogue_table_id is required")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scraper.BaseURL == "" {
		c.Scraper.BaseURL = "https://www.amazon.in/dp/"
	}
	if c.Scraper.Workers == "" {
		c.Scraper.Workers = "auto"
	}
	if c.Scraper.RatePerMinute <= 0 {
		c.Scraper.RatePerMinute = 20
	}
	if c.Scraper.MaxRetries <= 0 {
		c.Scraper.MaxRetries = 3
	}
	if c.Baserow.BaseURL == "" {
		c.Baserow.BaseURL = "https://api.baserow.io"
	}
	if c.Kafka.Brokers == "" {
		c.Kafka.Brokers = "localhost:9092"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "catalog.enriched"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CacheDB == "" {
		c.CacheDB = "enrichment.db"
	}
}

// applyEnv lets deployment secrets win over whatever is checked in.
func (c *Config) applyEnv() {
	c.Baserow.ApiToken = getEnvAsString("BASEROW_API_TOKEN", c.Baserow.ApiToken)
	c.Baserow.BaseURL = getEnvAsString("BASEROW_BASE_URL", c.Baserow.BaseURL)
	c.Baserow.CatalogueTableID = getEnvAsInt("BASEROW_CATALOGUE_TABLE_ID", c.Baserow.CatalogueTableID)
	c.Kafka.Brokers = getEnvAsString("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.Topic = getEnvAsString("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.Enabled = getEnvAsBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.LogLevel = getEnvAsString("LOG_LEVEL", c.LogLevel)
	for i := range c.Summarizer.Providers {
		envKey := strings.ToUpper(c.Summarizer.Providers[i].Name) + "_API_KEY"
		c.Summarizer.Providers[i].ApiKey = getEnvAsString(envKey, c.Summarizer.Providers[i].ApiKey)
	}
}

func getEnvAsString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true"
}
