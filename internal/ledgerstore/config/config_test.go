package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"127.0.0.1"}, cfg.ContactPoints)
	assert.Equal(t, 9042, cfg.Port)
	assert.Equal(t, "ledgerstore", cfg.Keyspace)
	assert.Equal(t, 3, cfg.ReplicationFactor)
	assert.Equal(t, 10000, cfg.MaxRequestsOutstanding)
	assert.Equal(t, 10, cfg.IndexerMaxRequestsOutstanding)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledgerstore.toml")
	contents := `
contact_points = ["10.0.0.1", "10.0.0.2"]
keyspace = "clio_mainnet"
table_prefix = "test_"
replication_factor = 1
max_requests_outstanding = 500
indexer_max_requests_outstanding = 5
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.ContactPoints)
	assert.Equal(t, "clio_mainnet", cfg.Keyspace)
	assert.Equal(t, "test_", cfg.TablePrefix)
	assert.Equal(t, 1, cfg.ReplicationFactor)
	assert.Equal(t, 500, cfg.MaxRequestsOutstanding)
	assert.Equal(t, 5, cfg.IndexerMaxRequestsOutstanding)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsEmptyContactPoints(t *testing.T) {
	cfg := config.Config{
		Keyspace:                      "ks",
		ReplicationFactor:             1,
		Port:                          9042,
		MaxRequestsOutstanding:        10,
		IndexerMaxRequestsOutstanding: 1,
		NumChannels:                   1,
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "contact_points")
}

func TestValidateRejectsEmptyKeyspace(t *testing.T) {
	cfg := config.Config{
		ContactPoints:                 []string{"127.0.0.1"},
		Port:                          9042,
		ReplicationFactor:             1,
		MaxRequestsOutstanding:        10,
		IndexerMaxRequestsOutstanding: 1,
		NumChannels:                   1,
	}
	assert.ErrorContains(t, cfg.Validate(), "keyspace")
}

func TestValidateRejectsIndexerCapAboveGeneralCap(t *testing.T) {
	cfg := config.Config{
		ContactPoints:                 []string{"127.0.0.1"},
		Port:                          9042,
		Keyspace:                      "ks",
		ReplicationFactor:             1,
		MaxRequestsOutstanding:        10,
		IndexerMaxRequestsOutstanding: 20,
		NumChannels:                   1,
	}
	assert.ErrorContains(t, cfg.Validate(), "indexer_max_requests_outstanding")
}

func TestValidateRejectsNegativeTTL(t *testing.T) {
	cfg := config.Config{
		ContactPoints:                 []string{"127.0.0.1"},
		Port:                          9042,
		Keyspace:                      "ks",
		ReplicationFactor:             1,
		TTLSeconds:                    -1,
		MaxRequestsOutstanding:        10,
		IndexerMaxRequestsOutstanding: 1,
		NumChannels:                   1,
	}
	assert.ErrorContains(t, cfg.Validate(), "ttl_seconds")
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := config.Config{
		ContactPoints:                 []string{"127.0.0.1", "127.0.0.2"},
		Port:                          9042,
		Keyspace:                      "ledgerstore",
		ReplicationFactor:             3,
		MaxRequestsOutstanding:        10000,
		IndexerMaxRequestsOutstanding: 10,
		NumChannels:                   4,
	}
	assert.NoError(t, cfg.Validate())
}
