// Package postgres stores transaction history in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/equipment-market/internal/config"
)

// SchemaVersion is the migration version the queries in this package expect.
const SchemaVersion = 1

// ErrSchemaOutdated is returned when the database has not been migrated to
// SchemaVersion, or a migration was left dirty.
var ErrSchemaOutdated = errors.New("database schema is not current")

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Store owns the connection pool and the repositories built on it.
type Store struct {
	pool    *pgxpool.Pool
	History *HistoryRepository
}

// NewStore wraps an existing pool.
//
// Precondition: pool must be non-nil.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, History: NewHistoryRepository(pool)}
}

// Open connects to the database described by cfg and checks that its schema
// is current.
//
// Precondition: cfg must pass DatabaseConfig.Validate.
// Postcondition: Returns a ready Store or a non-nil error; on error no
// connections are left open.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	start := time.Now()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "equipment-market"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := NewStore(pool)
	if err := s.CheckSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Debug("database connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

// CheckSchema compares the version recorded by golang-migrate with
// SchemaVersion.
func (s *Store) CheckSchema(ctx context.Context) error {
	var (
		version int64
		dirty   bool
	)
	err := s.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.As(err, &pgErr) && pgErr.Code == undefinedTable:
		version = 0
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	}

	if dirty {
		return fmt.Errorf("%w: migration %d is dirty", ErrSchemaOutdated, version)
	}
	if version < SchemaVersion {
		return fmt.Errorf("%w: at version %d, need %d", ErrSchemaOutdated, version, SchemaVersion)
	}
	return nil
}

// Health checks that the database answers within timeout.
//
// Precondition: The store must not be closed.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Close releases all pool connections.
func (s *Store) Close() {
	s.pool.Close()
}
