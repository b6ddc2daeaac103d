// Package sqlgw runs audited SQL statements against the Odoo PostgreSQL database.
package sqlgw

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/db2fs/db2fs/internal/logger/adapter/gormlog"
	"github.com/db2fs/db2fs/internal/metrics"
)

const slowThreshold = 10 * time.Second

// Gateway executes raw statements. Every statement is logged before it runs.
type Gateway interface {
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Scan runs a query and scans the result into dest.
	Scan(ctx context.Context, dest any, query string, args ...any) error
}

// DB implements Gateway with gorm.
type DB struct {
	db *gorm.DB
}

// Open connects to PostgreSQL using a libpq DSN.
func Open(dsn string) (*DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlog.New(gormlogger.Warn, slowThreshold),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return New(db), nil
}

// New wraps an open gorm connection.
func New(db *gorm.DB) *DB {
	return &DB{db: db}
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB")
	}

	return errors.Wrap(sqlDB.Close(), "failed to close database")
}

// Exec implements Gateway.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	audit(query, args)

	res := d.db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "exec %q", Compact(query))
	}

	return res.RowsAffected, nil
}

// Scan implements Gateway.
func (d *DB) Scan(ctx context.Context, dest any, query string, args ...any) error {
	audit(query, args)

	if err := d.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error; err != nil {
		return errors.Wrapf(err, "query %q", Compact(query))
	}

	return nil
}

func audit(query string, args []any) {
	metrics.SQLStatements.Inc()

	e := log.Info().Str("component", "sql")
	if len(args) > 0 {
		e = e.Interface("args", args)
	}

	e.Msg(Compact(query))
}

// Compact collapses the whitespace of a multi line statement.
func Compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
