package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App            AppConfig               `mapstructure:"app"`
	Camunda        CamundaConfig           `mapstructure:"camunda"`
	Database       DatabaseConfig          `mapstructure:"database"`
	Workers        map[string]WorkerConfig `mapstructure:"workers"`
	APIs           APIsConfig              `mapstructure:"apis"`
	Analysis       AnalysisConfig          `mapstructure:"analysis"`
	Recommendation RecommendationConfig    `mapstructure:"recommendation"`
	Registry       RegistryConfig          `mapstructure:"registry"`
	Logging        LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
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
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
	Index      string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address       string `mapstructure:"address"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	ProfileTTLSec int    `mapstructure:"profile_ttl_seconds"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Foursquare FoursquareConfig `mapstructure:"foursquare"`
	GenAI      GenAIConfig      `mapstructure:"genai"`
}

type FoursquareConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	APIVersion string `mapstructure:"api_version"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

type GenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// AnalysisConfig holds the tunables of the message analysis pipeline.
type AnalysisConfig struct {
	// UpdateThreshold is the overall-relevance bar above which an analysis
	// result is allowed to update member preferences.
	UpdateThreshold float64 `mapstructure:"update_threshold"`
	// MinConfidence gates keyword merges on the analysis confidence.
	MinConfidence float64 `mapstructure:"min_confidence"`
	// StaleAfterDays marks a member preference stale when unrefreshed.
	StaleAfterDays int     `mapstructure:"stale_after_days"`
	DecayFactor    float64 `mapstructure:"decay_factor"`
	DecayFloor     float64 `mapstructure:"decay_floor"`
}

// RecommendationConfig holds ranking tunables.
type RecommendationConfig struct {
	MaxResults         int `mapstructure:"max_results"`
	DiversityThreshold int `mapstructure:"diversity_threshold"`
}

// RegistryConfig points at the task registry asset.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
