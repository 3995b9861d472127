package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stayhub/internal/config"
	"stayhub/internal/domain"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const memoryPath = ":memory:"

// DB is the durable store. Outside of WithTx every call runs in its own
// implicit transaction.
type DB struct {
	*store
	x      *sqlx.DB
	path   string
	logger *zerolog.Logger
}

var _ domain.Store = (*DB)(nil)

// Open connects to the configured driver and applies the schema.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgres(cfg.Postgres, logger)
	case config.DriverSQLite, "":
		return NewDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDB opens a SQLite database at path. Writers take the database lock at
// BEGIN so concurrent holds on the same nights serialize instead of failing
// at commit.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	memory := path == memoryPath
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
	if !memory {
		dsn += "&_journal_mode=WAL"
	}

	x, err := sqlx.Open(config.DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		x.SetMaxOpenConns(1)
	} else {
		x.SetMaxOpenConns(10)
	}

	db, err := initialize(x, path, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Msg("sqlite database initialized")
	return db, nil
}

// NewPostgres connects to PostgreSQL through lib/pq.
func NewPostgres(cfg config.PostgresConfig, logger *zerolog.Logger) (*DB, error) {
	x, err := sqlx.Open(config.DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 25
	}
	x.SetMaxOpenConns(maxConns)
	x.SetMaxIdleConns(maxConns / 2)
	x.SetConnMaxLifetime(5 * time.Minute)

	db, err := initialize(x, "", logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("postgres database initialized")
	return db, nil
}

func initialize(x *sqlx.DB, path string, logger *zerolog.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := x.PingContext(ctx); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(ctx, x); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	db := Wrap(x, logger)
	db.path = path
	return db, nil
}

// Wrap builds a DB around an existing connection without touching the schema.
func Wrap(x *sqlx.DB, logger *zerolog.Logger) *DB {
	return &DB{
		store:  newStore(x),
		x:      x,
		logger: logger,
	}
}

func createTables(ctx context.Context, x *sqlx.DB) error {
	queries := sqliteSchema
	if x.DriverName() == config.DriverPostgres {
		queries = postgresSchema
	}
	for _, query := range queries {
		if _, err := x.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx domain.Tx) error) (err error) {
	tx, err := db.x.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Storage("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error().Err(rbErr).Msg("rollback failed")
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = domain.Storage("commit transaction", cErr)
		}
	}()

	return fn(newStore(tx))
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.x.PingContext(ctx); err != nil {
		return domain.Storage("ping database", err)
	}
	return nil
}

// Driver returns the name of the underlying SQL driver.
func (db *DB) Driver() string {
	return db.x.DriverName()
}

// Path returns the SQLite file path, empty for other drivers.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Close() error {
	return db.x.Close()
}
