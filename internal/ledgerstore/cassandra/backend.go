// Package cassandra is the Cassandra-backed implementation of
// backend.Backend: schema management, a prepared-statement catalog, a
// bounded-concurrency async write pipeline, and the online-delete
// retention procedure, all layered directly over gocql the same way this
// codebase's other storage backends layer directly over their own
// drivers.
package cassandra

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/xrplreport/ledgerstore/internal/ledgerstore"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/backend"
	"github.com/xrplreport/ledgerstore/internal/ledgerstore/config"
)

// CassandraBackend implements backend.Backend against a Cassandra (or
// Cassandra-protocol-compatible) cluster.
type CassandraBackend struct {
	cfg     *config.Config
	tables  tableNames
	stmts   statementCatalog
	log     backend.Logger
	session *gocql.Session

	pipeline *pipeline
}

// NewBackend constructs a backend from cfg without opening a session;
// call Open to connect.
func NewBackend(cfg *config.Config, log backend.Logger) *CassandraBackend {
	tables := newTableNames(cfg.TablePrefix)
	return &CassandraBackend{
		cfg:      cfg,
		tables:   tables,
		stmts:    newStatementCatalog(cfg.Keyspace, tables),
		log:      log,
		pipeline: newPipeline(uint32(cfg.MaxRequestsOutstanding)),
	}
}

// Open establishes the driver session and, unless readOnly, creates the
// keyspace and table set if they do not already exist.
func (b *CassandraBackend) Open(ctx context.Context, readOnly bool) error {
	cluster := gocql.NewCluster(b.cfg.ContactPoints...)
	cluster.Port = b.cfg.Port
	cluster.Consistency = gocql.Quorum
	cluster.NumConns = b.cfg.NumChannels
	if b.cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: b.cfg.Username,
			Password: b.cfg.Password,
		}
	}

	if !readOnly {
		bootstrap, err := cluster.CreateSession()
		if err != nil {
			return fmt.Errorf("ledgerstore: cassandra: failed to open bootstrap session: %w", err)
		}
		for _, stmt := range schemaStatements(b.cfg.Keyspace, b.cfg.ReplicationFactor, b.tables) {
			if err := bootstrap.Query(stmt).WithContext(ctx).Exec(); err != nil {
				bootstrap.Close()
				return fmt.Errorf("ledgerstore: cassandra: failed to apply schema: %w", err)
			}
		}
		bootstrap.Close()
	}

	cluster.Keyspace = b.cfg.Keyspace
	session, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("ledgerstore: cassandra: failed to open session: %w", err)
	}
	b.session = session

	if b.log != nil {
		b.log.Info("cassandra backend opened", "keyspace", b.cfg.Keyspace, "readOnly", readOnly)
	}
	return nil
}

// Close releases the driver session.
func (b *CassandraBackend) Close() error {
	if b.session != nil {
		b.session.Close()
	}
	return nil
}

// StartWrites is a no-op here: the pipeline's admission gate is shared
// across ledgers, there is no per-ledger session state to reset.
func (b *CassandraBackend) StartWrites() {}

func parseHash(raw []byte) (ledgerstore.Hash256, error) {
	var h ledgerstore.Hash256
	if len(raw) != len(h) {
		return h, fmt.Errorf("ledgerstore: cassandra: expected a %d-byte key, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gocql.ErrNotFound)
}
