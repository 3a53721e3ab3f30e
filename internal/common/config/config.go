// internal/common/config/config.go
package config

import "fmt"

// Config is the root configuration for the worker fleet.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Camunda       CamundaConfig       `mapstructure:"camunda"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	APIs          APIsConfig          `mapstructure:"apis"`
	Pricing       PricingConfig       `mapstructure:"pricing"`
	Planning      PlanningConfig      `mapstructure:"planning"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

// GetDSN builds the lib/pq connection string.
func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ElasticsearchConfig struct {
	URL       string   `mapstructure:"url"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig selects the activity catalog source and cache behavior.
type CatalogConfig struct {
	Source   string `mapstructure:"source"` // csv, postgres, elasticsearch
	CSVPath  string `mapstructure:"csv_path"`
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds, 0 disables caching
}

type APIsConfig struct {
	GenAI   GenAIConfig   `mapstructure:"genai"`
	SerpAPI SerpAPIConfig `mapstructure:"serpapi"`
}

type GenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type SerpAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// PricingConfig holds fallback estimates used when external searches fail.
type PricingConfig struct {
	FallbackFlightPrice float64 `mapstructure:"fallback_flight_price"`
	FallbackNightlyRate float64 `mapstructure:"fallback_nightly_rate"`
	MinHotelRating      float64 `mapstructure:"min_hotel_rating"`
	MaxNightlyRate      float64 `mapstructure:"max_nightly_rate"`
}

// PlanningConfig tunes the scoring pipeline.
type PlanningConfig struct {
	MinCityActivities int `mapstructure:"min_city_activities"`
	TopCities         int `mapstructure:"top_cities"`
	TopActivities     int `mapstructure:"top_activities"`
	RerankConcurrency int `mapstructure:"rerank_concurrency"`
}

type NotificationsConfig struct {
	Region     string `mapstructure:"region"`
	FromEmail  string `mapstructure:"from_email"`
	SMSEnabled bool   `mapstructure:"sms_enabled"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`
	MaxRetries    int  `mapstructure:"max_retries"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MonitoringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}
