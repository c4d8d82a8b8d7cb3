package cli

import (
	"context"
	"fmt"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore/backend"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/cache"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/cassandra"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/config"
)

// openInterface loads configuration and opens a backend.Interface over
// a CassandraBackend, the shared setup every subcommand needs.
func openInterface(ctx context.Context, readOnly bool) (*backend.Interface, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore-bench: %w", err)
	}

	log := backend.NewDefaultLogger()
	cb := cassandra.NewBackend(cfg, log)
	iface := backend.New(cb, cache.New(), log)

	if err := iface.Open(ctx, readOnly); err != nil {
		return nil, fmt.Errorf("ledgerstore-bench: failed to open backend: %w", err)
	}
	return iface, nil
}
