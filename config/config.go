package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Backend names accepted by Config.Backend
const (
	BackendElasticsearch = "elasticsearch"
	BackendBleve         = "bleve"
)

// Config represents the application configuration
type Config struct {
	Backend       string              `mapstructure:"backend"`
	Server        ServerConfig        `mapstructure:"server"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Search        SearchConfig        `mapstructure:"search"`
	Bootstrap     BootstrapConfig     `mapstructure:"bootstrap"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	CacheSize int    `mapstructure:"cache_size"` // Rendered schemas kept in memory
}

// ElasticsearchConfig contains connection settings for a remote cluster
type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	Timeout     int      `mapstructure:"timeout"`      // in seconds
	LegacyTypes bool     `mapstructure:"legacy_types"` // Nest compiled mappings under the type name
	Refresh     string   `mapstructure:"refresh"`      // Refresh policy for writes: true, false or wait_for
}

// SearchConfig contains settings for the local bleve backend
type SearchConfig struct {
	IndexPath string `mapstructure:"index_path"`
	BatchSize int    `mapstructure:"batch_size"`
}

// BootstrapConfig controls index creation at startup
type BootstrapConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Concurrency int  `mapstructure:"concurrency"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// LoadConfig loads configuration from file and environment variables.
// A missing config file is not an error when configPath is empty.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/esmapper")
	}

	// Set environment variable prefix
	v.SetEnvPrefix("ESMAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendElasticsearch)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cache_size", 64)
	v.SetDefault("elasticsearch.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.timeout", 30)
	v.SetDefault("elasticsearch.legacy_types", false)
	v.SetDefault("elasticsearch.refresh", "wait_for")
	v.SetDefault("search.index_path", "./indexes")
	v.SetDefault("search.batch_size", 1000)
	v.SetDefault("bootstrap.enabled", true)
	v.SetDefault("bootstrap.concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendElasticsearch:
		if len(c.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("elasticsearch backend requires at least one address")
		}
		if c.Elasticsearch.LegacyTypes {
			return fmt.Errorf("elasticsearch.legacy_types only applies to compiled output; the elasticsearch backend creates typeless indexes")
		}
	case BackendBleve:
		if c.Search.IndexPath == "" {
			return fmt.Errorf("bleve backend requires search.index_path")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.Elasticsearch.Refresh {
	case "", "true", "false", "wait_for":
	default:
		return fmt.Errorf("unknown refresh policy %q", c.Elasticsearch.Refresh)
	}
	if c.Bootstrap.Concurrency < 1 {
		return fmt.Errorf("bootstrap.concurrency must be at least 1")
	}
	return nil
}
