package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/bid-docs/internal/common"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is a database/sql handle plus the dialect it speaks.
type DB struct {
	SQL    *sql.DB
	driver string
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the configured driver and applies the schema.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		db  *DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = openPostgres(ctx, cfg, logger)
	case DriverSQLite, "":
		db, err = openSQLite(cfg, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown database driver %q", cfg.Driver), common.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("successfully connected to database", "driver", db.driver)
	return db, nil
}

func openSQLite(cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	logger.Info("opening sqlite database", "dsn", dsn)
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, common.NewAppError("DB_ERROR", "create database directory", err)
		}
	}
	sqlDB, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, common.NewAppError("DB_ERROR", "open sqlite", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY between workers.
	sqlDB.SetMaxOpenConns(1)
	return &DB{SQL: sqlDB, driver: DriverSQLite, logger: logger}, nil
}

func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, common.NewAppError("DB_ERROR", "parse dsn", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "bid-docs"

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, common.NewAppError("DB_ERROR", "connect", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	return &DB{SQL: stdlib.OpenDBFromPool(pool), driver: DriverPostgres, pool: pool, logger: logger}, nil
}

// Driver returns the dialect name.
func (d *DB) Driver() string { return d.driver }

// Close closes the database connections gracefully
func (d *DB) Close() {
	if d == nil {
		return
	}
	d.logger.Info("closing database connections")
	if err := d.SQL.Close(); err != nil {
		d.logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	d.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	d.logger.Debug("pinging database")
	if err := d.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", common.ErrDatabase, err)
	}
	d.logger.Debug("database ping successful")
	return nil
}

// rebind rewrites '?' placeholders into the '$n' form PostgreSQL expects.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const schema = `
CREATE TABLE IF NOT EXISTS standards (
	id          TEXT PRIMARY KEY,
	code        TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	file_name   TEXT NOT NULL,
	file_type   TEXT NOT NULL,
	stored_path TEXT NOT NULL,
	file_hash   TEXT NOT NULL UNIQUE,
	file_size   BIGINT NOT NULL,
	preview     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_standards_category ON standards (category);
`

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			d.logger.Error("schema migration failed", "error", err)
			return common.NewAppError("DB_ERROR", "migrate", fmt.Errorf("%w: %v", common.ErrDatabase, err))
		}
	}
	return nil
}
