// Package config loads the service configuration from a JSON or YAML
// file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lifeline-ems/lifeline/core/dispatch"
	"github.com/lifeline-ems/lifeline/core/scoring"
)

type Config struct {
	Server   ServerConfig    `json:"server"`
	Scoring  scoring.Config  `json:"scoring"`
	Dispatch dispatch.Config `json:"dispatch"`
	Storage  StorageConfig   `json:"storage"`
	Redis    RedisConfig     `json:"redis"`
	MQTT     MQTTConfig      `json:"mqtt"`
	Metrics  MetricsConfig   `json:"metrics"`
	Seed     SeedConfig      `json:"seed"`
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is either "memory" or "postgres".
	Backend string `json:"backend"`
	DSN     string `json:"dsn"`
}

// RedisConfig configures the redis event publisher.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Channel  string `json:"channel"`
}

// MQTTConfig configures the MQTT event publisher.
type MQTTConfig struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// MetricsConfig configures the observability sinks.
type MetricsConfig struct {
	PrometheusEnabled bool         `json:"prometheus_enabled"`
	PrometheusAddr    string       `json:"prometheus_addr"`
	Influx            InfluxConfig `json:"influx"`
}

// InfluxConfig configures the InfluxDB analytics sink.
type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// SeedConfig points at an optional JSON file of hospitals and
// ambulances loaded at startup.
type SeedConfig struct {
	File string `json:"file"`
}

// SetDefaults applies defaults for every section.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "lifeline-dispatch"
	}
	if c.Metrics.PrometheusAddr == "" {
		c.Metrics.PrometheusAddr = ":9090"
	}
	c.Scoring.SetDefaults()
	c.Dispatch.SetDefaults()
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return c.Scoring.Validate()
}

// Load reads the configuration file, applies LL_-prefixed environment
// overrides (LL_SERVER__ADDR maps to server.addr), defaults and
// validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("LL_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ll_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
