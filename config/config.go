package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Web       WebConfig       `yaml:"web"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	CRM       CRMConfig       `yaml:"crm"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Messaging MessagingConfig `yaml:"messaging"`
}

// WebConfig: viewers idle longer than ViewerIdleTTL are dropped from memory;
// zero keeps them until logout.
type WebConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	ViewerIdleTTL time.Duration `yaml:"viewer_idle_ttl"`
}

// DashboardConfig points the dashboard view at an order backend exposing
// /orders and /summary. An empty APIURL means this process's own /api on
// web.port. A zero timeout means requests never time out.
type DashboardConfig struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// CRMConfig configures the RetailCRM pull behind /api/orders and /api/summary.
type CRMConfig struct {
	APIURL            string        `yaml:"api_url"`
	APIKey            string        `yaml:"api_key"`
	PageLimit         int           `yaml:"page_limit"`
	Timeout           time.Duration `yaml:"timeout"`
	DeliveryKeyword   string        `yaml:"delivery_keyword"`
	ApprovedStatuses  []string      `yaml:"approved_statuses"`
	DeliveredStatuses []string      `yaml:"delivered_statuses"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig is optional; an empty address disables the CRM cache.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MessagingConfig defines the event publishing backend: "mqtt", "kafka" or
// "" to disable publishing.
type MessagingConfig struct {
	Backend    string      `yaml:"backend"`
	MQTT       MQTTConfig  `yaml:"mqtt"`
	Kafka      KafkaConfig `yaml:"kafka"`
	FetchTopic string      `yaml:"fetch_topic"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// envOverrides lists the environment variables that win over the YAML file.
type envOverrides struct {
	CRMAPIURL       string `envconfig:"RETAIL_CRM_API_URL"`
	CRMAPIKey       string `envconfig:"RETAIL_CRM_API_KEY"`
	SessionSecret   string `envconfig:"CRMDASH_SESSION_SECRET"`
	DashboardAPIURL string `envconfig:"CRMDASH_DASHBOARD_API_URL"`
}

func Defaults() *Config {
	return &Config{
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8090,
			SessionSecret: "change-me-in-production",
			ViewerIdleTTL: 24 * time.Hour,
		},
		Dashboard: DashboardConfig{},
		CRM: CRMConfig{
			APIURL:            "",
			PageLimit:         100,
			Timeout:           30 * time.Second,
			DeliveryKeyword:   "доставка",
			ApprovedStatuses:  []string{"payoff", "assembling", "delivery", "complete", "return"},
			DeliveredStatuses: []string{"complete", "return"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "crmdash.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "crmdash",
				User:     "crmdash",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{},
		Messaging: MessagingConfig{
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "crmdash",
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
			},
			FetchTopic: "crmdash.fetch",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Dashboard.APIURL == "" {
		cfg.Dashboard.APIURL = cfg.LocalAPIURL()
	}
	return cfg, nil
}

// LocalAPIURL is the order backend served by this process.
func (c *Config) LocalAPIURL() string {
	return fmt.Sprintf("http://localhost:%d/api", c.Web.Port)
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("process env: %w", err)
	}
	if env.CRMAPIURL != "" {
		c.CRM.APIURL = env.CRMAPIURL
	}
	if env.CRMAPIKey != "" {
		c.CRM.APIKey = env.CRMAPIKey
	}
	if env.SessionSecret != "" {
		c.Web.SessionSecret = env.SessionSecret
	}
	if env.DashboardAPIURL != "" {
		c.Dashboard.APIURL = env.DashboardAPIURL
	}
	return nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
