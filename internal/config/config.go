package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the single configuration structure for the detector. Every
// heuristic threshold lives here so the scoring policy stays auditable
// instead of being scattered through the analyzers.
type Config struct {
	Env      string
	LogLevel string
	LogPath  string

	ApiPort    string
	MilterPort string

	DatabaseURL      string
	MaxDBConnections int
	RedisURL         string

	ReferenceDataPath string

	Classifier ClassifierConfig
	Relay      RelayConfig
	URL        URLConfig
	Typosquat  TyposquatConfig
	Reputation ReputationConfig
	Scoring    ScoringConfig

	// RequestDeadline bounds one full analysis, network lookups included.
	RequestDeadline time.Duration
}

// ClassifierConfig points at the external text-intent classifier service.
type ClassifierConfig struct {
	URL     string
	Timeout time.Duration
}

// RelayConfig tunes the relay-route tracer.
type RelayConfig struct {
	MaxHops int
}

// URLConfig bounds the URL pipeline.
type URLConfig struct {
	MaxURLs        int
	MaxRedirects   int
	MaxConcurrency int
	Timeout        time.Duration
	ResolveHosts   bool
	MaxLength      int
	MaxSubdomains  int
}

// TyposquatConfig tunes the edit-distance heuristics.
type TyposquatConfig struct {
	MaxDistance  int
	MinDomainLen int
}

// ReputationConfig configures the optional bad-URL signature lookup.
// Disabled means the component is a no-op, not an error.
type ReputationConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// ScoringConfig holds the aggregation policy knobs.
type ScoringConfig struct {
	DecisionThreshold  float64
	MediumThreshold    float64
	CorroborationBonus float64
	CountBonus         float64
}

// LoadConfig reads config.yaml via viper and applies defaults for every
// tunable so a minimal file still yields a working engine.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("cmd/phishdetect")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file is fine: defaults plus environment cover everything.
	}

	viper.AutomaticEnv()

	cfg := &Config{
		Env:              viper.GetString("env"),
		LogLevel:         viper.GetString("log.level"),
		LogPath:          viper.GetString("log.path"),
		ApiPort:          viper.GetString("api.port"),
		MilterPort:       viper.GetString("milter.port"),
		DatabaseURL:      viper.GetString("database.url"),
		MaxDBConnections: viper.GetInt("database.max_connections"),
		RedisURL:         viper.GetString("redis.url"),

		ReferenceDataPath: viper.GetString("reference.path"),

		Classifier: ClassifierConfig{
			URL:     viper.GetString("classifier.url"),
			Timeout: viper.GetDuration("classifier.timeout"),
		},
		Relay: RelayConfig{
			MaxHops: viper.GetInt("relay.max_hops"),
		},
		URL: URLConfig{
			MaxURLs:        viper.GetInt("url.max_urls"),
			MaxRedirects:   viper.GetInt("url.max_redirects"),
			MaxConcurrency: viper.GetInt("url.max_concurrency"),
			Timeout:        viper.GetDuration("url.timeout"),
			ResolveHosts:   viper.GetBool("url.resolve_hosts"),
			MaxLength:      viper.GetInt("url.max_length"),
			MaxSubdomains:  viper.GetInt("url.max_subdomains"),
		},
		Typosquat: TyposquatConfig{
			MaxDistance:  viper.GetInt("typosquat.max_distance"),
			MinDomainLen: viper.GetInt("typosquat.min_domain_len"),
		},
		Reputation: ReputationConfig{
			Enabled:  viper.GetBool("reputation.enabled"),
			Endpoint: viper.GetString("reputation.endpoint"),
			APIKey:   viper.GetString("reputation.api_key"),
			Timeout:  viper.GetDuration("reputation.timeout"),
			CacheTTL: viper.GetDuration("reputation.cache_ttl"),
		},
		Scoring: ScoringConfig{
			DecisionThreshold:  viper.GetFloat64("scoring.decision_threshold"),
			MediumThreshold:    viper.GetFloat64("scoring.medium_threshold"),
			CorroborationBonus: viper.GetFloat64("scoring.corroboration_bonus"),
			CountBonus:         viper.GetFloat64("scoring.count_bonus"),
		},
		RequestDeadline: viper.GetDuration("request_deadline"),
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("env", "development")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("api.port", "8080")

	viper.SetDefault("classifier.timeout", 5*time.Second)

	viper.SetDefault("relay.max_hops", 8)

	viper.SetDefault("url.max_urls", 20)
	viper.SetDefault("url.max_redirects", 5)
	viper.SetDefault("url.max_concurrency", 20)
	viper.SetDefault("url.timeout", 5*time.Second)
	viper.SetDefault("url.resolve_hosts", false)
	viper.SetDefault("url.max_length", 150)
	viper.SetDefault("url.max_subdomains", 4)

	viper.SetDefault("typosquat.max_distance", 2)
	viper.SetDefault("typosquat.min_domain_len", 6)

	viper.SetDefault("reputation.enabled", false)
	viper.SetDefault("reputation.endpoint", "https://checkurl.phishtank.com/checkurl/")
	viper.SetDefault("reputation.timeout", 5*time.Second)
	viper.SetDefault("reputation.cache_ttl", 24*time.Hour)

	viper.SetDefault("scoring.decision_threshold", 0.5)
	viper.SetDefault("scoring.medium_threshold", 0.4)
	viper.SetDefault("scoring.corroboration_bonus", 0.1)
	viper.SetDefault("scoring.count_bonus", 0.05)

	viper.SetDefault("request_deadline", 15*time.Second)
}
