package migrate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/db2fs/db2fs/internal/db/sqlgw"
	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/version"
)

// SQLConn is a direct database connection used by the manual conversion.
type SQLConn interface {
	sqlgw.Gateway
	Close() error
}

// SQLOpener opens a SQLConn for a DSN.
type SQLOpener func(dsn string) (SQLConn, error)

// Option configures an Engine.
type Option func(*Engine)

// WithSQLOpener replaces the PostgreSQL connection of the manual conversion.
func WithSQLOpener(open SQLOpener) Option {
	return func(e *Engine) {
		e.openSQL = open
	}
}

// Detection is the result of a read-only version probe.
type Detection struct {
	UID      int64
	Version  string
	Strategy version.Strategy
}

// Engine runs one migration against one Odoo database.
type Engine struct {
	gw      remote.Gateway
	opts    Options
	openSQL SQLOpener
}

// New creates an Engine.
func New(gw remote.Gateway, opts Options, options ...Option) *Engine {
	e := &Engine{
		gw:   gw,
		opts: opts.withDefaults(),
		openSQL: func(dsn string) (SQLConn, error) {
			return sqlgw.Open(dsn)
		},
	}

	for _, o := range options {
		o(e)
	}

	return e
}

// Detect logs in and returns the version and strategy without changing anything.
func (e *Engine) Detect(ctx context.Context) (Detection, error) {
	uid, err := e.login(ctx)
	if err != nil {
		return Detection{}, err
	}

	label, err := version.Detect(ctx, e.gw)
	if err != nil {
		return Detection{UID: uid}, errors.Wrap(err, "failed to detect the odoo version")
	}

	strategy, err := version.Select(label)
	if err != nil {
		return Detection{UID: uid, Version: label}, errors.Wrap(err, "moving attachments is not implemented for this version")
	}

	return Detection{UID: uid, Version: label, Strategy: strategy}, nil
}

// Run migrates every attachment. Attachments that fail are listed in the
// report and don't make Run fail, a later run retries them.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), Started: time.Now()}

	logger := log.With().Str("run", report.RunID).Logger()
	ctx = logger.WithContext(ctx)

	if e.opts.ManualAttachmentConversion && e.opts.DSN == "" {
		return report, errors.Wrap(ErrNoDsn, "use --dsn together with --manual-attachment-conversion")
	}

	detection, err := e.Detect(ctx)
	if err != nil {
		return report, err
	}

	report.Version = detection.Version
	report.Strategy = detection.Strategy

	logger.Info().Str("version", detection.Version).Str("strategy", string(detection.Strategy)).Msg("migration started")

	switch detection.Strategy {
	case version.StrategyDocumentStorage:
		bulk := func(ctx context.Context) error {
			var err error

			report.Bulk, err = e.runBulk(ctx)

			return err
		}

		err = NewLegacyMigrator(e.gw, e.opts, bulk).Run(ctx, report)
	case version.StrategyConfigParameter:
		err = NewModernMigrator(e.gw, e.opts).Run(ctx, report)
	}

	report.Finished = time.Now()

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}

	event.
		Int("total", report.Total).
		Int("migrated", report.Migrated).
		Int("failed", report.Failed).
		Dur("duration", report.Duration()).
		Msg("migration finished")

	return report, err
}

// login authenticates and rejects any user but the administrator, whose
// record rules can't hide attachments from the migration.
func (e *Engine) login(ctx context.Context) (int64, error) {
	uid, err := e.gw.Login(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to log in")
	}

	if uid != e.opts.AdminUID {
		return uid, errors.Wrapf(ErrNotAdminUser, "logged in as uid %d", uid)
	}

	return uid, nil
}

func (e *Engine) runBulk(ctx context.Context) (*BulkReport, error) {
	conn, err := e.openSQL(e.opts.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open the database")
	}

	defer func() {
		if err := conn.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close the database")
		}
	}()

	return NewBulkConverter(conn, e.opts.BatchSize).Run(ctx)
}
