// Package config loads and validates the settings the Cassandra backend
// and its write pipeline need, following the loader/defaults/validate
// split already used elsewhere in this codebase for database configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything a Cassandra-backed Interface needs to open and
// run: cluster connection details, schema naming, and the write
// pipeline's admission caps.
type Config struct {
	ContactPoints []string `mapstructure:"contact_points"`
	Port          int      `mapstructure:"port"`
	Keyspace      string   `mapstructure:"keyspace"`
	TablePrefix   string   `mapstructure:"table_prefix"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`

	ReplicationFactor int `mapstructure:"replication_factor"`

	// TTLSeconds, when non-zero, is applied to every per-ledger data
	// insert as the row's time-to-live; the ledger_range rows are never
	// TTL'd. Zero means rows never expire on their own
	// and retention is left entirely to the online-delete procedure.
	TTLSeconds int `mapstructure:"ttl_seconds"`

	MaxRequestsOutstanding        int `mapstructure:"max_requests_outstanding"`
	IndexerMaxRequestsOutstanding int `mapstructure:"indexer_max_requests_outstanding"`

	// NumChannels is the number of TCP connections gocql opens per host.
	NumChannels int `mapstructure:"num_channels"`

	// OnlineDeleteIntervalSeconds is loaded and checked to be
	// non-negative. Nothing in this module schedules the retention
	// procedure or reads this value; retention runs only when invoked
	// directly.
	OnlineDeleteIntervalSeconds int `mapstructure:"online_delete_interval_seconds"`

	// LedgersToKeep bounds how many of the most recent ledgers the
	// retention procedure preserves.
	LedgersToKeep uint32 `mapstructure:"ledgers_to_keep"`
}

// setDefaults installs the values a deployment gets without touching a
// config file, matching rippled-derived defaults for the cache/admission
// knobs the source backend ships with.
func setDefaults(v *viper.Viper) {
	v.SetDefault("contact_points", []string{"127.0.0.1"})
	v.SetDefault("port", 9042)
	v.SetDefault("keyspace", "ledgerstore")
	v.SetDefault("table_prefix", "")
	v.SetDefault("replication_factor", 3)
	v.SetDefault("ttl_seconds", 0)
	v.SetDefault("max_requests_outstanding", 10000)
	v.SetDefault("indexer_max_requests_outstanding", 10)
	v.SetDefault("num_channels", 4)
	v.SetDefault("online_delete_interval_seconds", 0)
	v.SetDefault("ledgers_to_keep", uint32(0))
}

// Load reads configuration from an optional file at path and from
// environment variables under the LEDGERSTORE_ prefix, with environment
// values overriding the file and the file overriding defaults, and
// validates the result. An empty path skips the file step.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ledgerstore: failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("LEDGERSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ledgerstore: failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledgerstore: config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the invariants the cassandra package and its write
// pipeline assume hold: a non-empty cluster and keyspace, sane positive
// caps, and that the indexer cap never exceeds the general one (the
// indexer write path is the narrower gate described for
// indexerMaxRequestsOutstanding).
func (c *Config) Validate() error {
	if len(c.ContactPoints) == 0 {
		return fmt.Errorf("contact_points must include at least one host")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Keyspace == "" {
		return fmt.Errorf("keyspace is required")
	}
	if c.ReplicationFactor < 1 {
		return fmt.Errorf("replication_factor must be at least 1, got %d", c.ReplicationFactor)
	}
	if c.TTLSeconds < 0 {
		return fmt.Errorf("ttl_seconds must be non-negative, got %d", c.TTLSeconds)
	}
	if c.MaxRequestsOutstanding < 1 {
		return fmt.Errorf("max_requests_outstanding must be at least 1, got %d", c.MaxRequestsOutstanding)
	}
	if c.IndexerMaxRequestsOutstanding < 1 {
		return fmt.Errorf("indexer_max_requests_outstanding must be at least 1, got %d", c.IndexerMaxRequestsOutstanding)
	}
	if c.IndexerMaxRequestsOutstanding > c.MaxRequestsOutstanding {
		return fmt.Errorf("indexer_max_requests_outstanding (%d) cannot exceed max_requests_outstanding (%d)", c.IndexerMaxRequestsOutstanding, c.MaxRequestsOutstanding)
	}
	if c.NumChannels < 1 {
		return fmt.Errorf("num_channels must be at least 1, got %d", c.NumChannels)
	}
	if c.OnlineDeleteIntervalSeconds < 0 {
		return fmt.Errorf("online_delete_interval_seconds must be non-negative, got %d", c.OnlineDeleteIntervalSeconds)
	}
	return nil
}
