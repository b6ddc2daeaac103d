// Package gormlog routes gorm log output to the global zerolog logger.
package gormlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

// Logger implements gorm's logger.Interface on top of zerolog.
type Logger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	logger        *zerolog.Logger
}

// New returns a gorm logger writing at level and above.
// Statements slower than slowThreshold are reported as warnings, 0 disables the check.
func New(level gormlogger.LogLevel, slowThreshold time.Duration) *Logger {
	return &Logger{
		level:         level,
		slowThreshold: slowThreshold,
	}
}

// WithLogger returns a copy writing to l instead of the global logger.
func (g *Logger) WithLogger(l zerolog.Logger) *Logger {
	n := *g
	n.logger = &l

	return &n
}

func (g *Logger) zl() *zerolog.Logger {
	if g.logger != nil {
		return g.logger
	}

	return &log.Logger
}

// LogMode implements gormlogger.Interface.
func (g *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	n := *g
	n.level = level

	return &n
}

// Info implements gormlogger.Interface.
func (g *Logger) Info(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Info {
		g.zl().Info().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
	}
}

// Warn implements gormlogger.Interface.
func (g *Logger) Warn(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.zl().Warn().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
	}
}

// Error implements gormlogger.Interface.
func (g *Logger) Error(_ context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Error {
		g.zl().Error().Str("component", "gorm").Msg(fmt.Sprintf(msg, data...))
	}
}

// Trace implements gormlogger.Interface.
// Failed statements are logged at error level, slow ones at warn, the rest at trace.
func (g *Logger) Trace(_ context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		g.zl().Error().Err(err).Str("component", "gorm").Dur("elapsed", elapsed).
			Int64("rows", rows).Msg(sql)
	case g.slowThreshold != 0 && elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.zl().Warn().Str("component", "gorm").Dur("elapsed", elapsed).
			Int64("rows", rows).Msgf("slow sql >= %v: %s", g.slowThreshold, sql)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.zl().Trace().Str("component", "gorm").Dur("elapsed", elapsed).
			Int64("rows", rows).Msg(sql)
	}
}
