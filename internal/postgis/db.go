// Package postgis reads the catalog and data of a PostGIS database.
package postgis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/logr"
)

// max conns avail in a pgx pool; operations run queries one after another
const defaultMaxConnections = 2

// DB provides access to the PostGIS database.
type DB struct {
	*pgxpool.Pool // db connection pool
	logr.Logger
}

// Connect constructs a connection pool and checks the database is reachable.
func Connect(ctx context.Context, logger logr.Logger, connString string) (*DB, error) {
	connString, err := setDefaultMaxConnections(connString, defaultMaxConnections)
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	conn := ConnConfig{
		Host:     cfg.ConnConfig.Host,
		Port:     cfg.ConnConfig.Port,
		Database: cfg.ConnConfig.Database,
		User:     cfg.ConnConfig.User,
	}
	logger.V(1).Info("connected to database", "database", conn)

	return &DB{Pool: pool, Logger: logger}, nil
}

// Exec executes a command, returning the number of rows affected.
func (db *DB) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	cmdTag, err := db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, toError(err)
	}
	return cmdTag.RowsAffected(), nil
}

// toError maps a postgres error to a more appropriate error.
func toError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01", "3F000": // undefined_table, invalid_schema_name
			return fmt.Errorf("%w: %s", internal.ErrResourceNotFound, pgErr.Message)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return internal.ErrResourceNotFound
	}
	return err
}

func setDefaultMaxConnections(connString string, max int) (string, error) {
	// pg connection string can be either a URL or a DSN
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		u, err := url.Parse(connString)
		if err != nil {
			return "", fmt.Errorf("parsing connection string url: %w", err)
		}
		q := u.Query()
		q.Add("pool_max_conns", strconv.Itoa(max))
		u.RawQuery = q.Encode()
		return url.PathUnescape(u.String())
	} else if connString == "" {
		// presume empty DSN
		return fmt.Sprintf("pool_max_conns=%d", max), nil
	} else {
		// presume non-empty DSN
		return fmt.Sprintf("%s pool_max_conns=%d", connString, max), nil
	}
}
