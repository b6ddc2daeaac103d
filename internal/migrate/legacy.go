package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/db2fs/db2fs/internal/metrics"
	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/version"
)

const (
	storageTypeDB        = "db"
	storageTypeFilestore = "filestore"
)

// LegacyMigrator moves attachments of a 6.0 or 6.1 server from the database
// storage to a filestore storage of the document module.
type LegacyMigrator struct {
	gw   remote.Gateway
	opts Options
	bulk func(ctx context.Context) error
}

// NewLegacyMigrator creates the migrator. bulk runs the manual conversion and may be nil.
func NewLegacyMigrator(gw remote.Gateway, opts Options, bulk func(ctx context.Context) error) *LegacyMigrator {
	return &LegacyMigrator{gw: gw, opts: opts.withDefaults(), bulk: bulk}
}

// Run checks the preconditions and migrates every attachment still stored in the database.
func (m *LegacyMigrator) Run(ctx context.Context, report *Report) error {
	logger := zerolog.Ctx(ctx)

	if err := m.preflight(ctx); err != nil {
		return err
	}

	dbStorage, err := m.databaseStorage(ctx)
	if err != nil {
		return err
	}

	fsStorage, err := m.filestoreStorage(ctx)
	if err != nil {
		return err
	}

	// directories on another storage keep it, their files live under that storage's path
	directories, err := m.gw.Search(ctx, remote.ModelDirectory, remote.Where("storage_id", "=", dbStorage), remote.OrderByID)
	if err != nil {
		return errors.Wrap(err, "failed to search directories")
	}

	needsRename, err := m.duplicateNames(ctx)
	if err != nil {
		return err
	}

	pending, err := m.gw.Search(ctx, remote.ModelAttachment, remote.Where("db_datas", "!=", false), remote.OrderByID)
	if err != nil {
		return errors.Wrap(err, "failed to search attachments stored in the database")
	}

	report.Total = len(pending)

	logger.Info().
		Int("attachments", len(pending)).
		Int64("db_storage", dbStorage).
		Int64("filestore_storage", fsStorage).
		Bool("rename", needsRename).
		Msg("Begin moving attachments")

	for i, id := range pending {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "migration interrupted")
		}

		err := m.moveOne(ctx, id, dbStorage, fsStorage, needsRename)
		recordItem(ctx, report, version.StrategyDocumentStorage, id, i+1, len(pending), err)
	}

	return m.routeDirectories(ctx, directories, fsStorage)
}

func (m *LegacyMigrator) databaseStorage(ctx context.Context) (int64, error) {
	ids, err := m.gw.Search(ctx, remote.ModelStorage, remote.Where("type", "=", storageTypeDB), remote.OrderByID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to search the database storage")
	}

	if len(ids) == 0 {
		return 0, ErrDatabaseStorageNotFound
	}

	return ids[0], nil
}

// filestoreStorage returns the filestore storage for the configured path, creating it once.
func (m *LegacyMigrator) filestoreStorage(ctx context.Context) (int64, error) {
	ids, err := m.gw.Search(ctx, remote.ModelStorage,
		remote.Where("type", "=", storageTypeFilestore).And("path", "=", m.opts.FilestorePath), remote.OrderByID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to search the filestore storage")
	}

	if len(ids) > 0 {
		zerolog.Ctx(ctx).Info().Int64("storage", ids[0]).Msg("reusing filestore storage")

		return ids[0], nil
	}

	id, err := m.gw.Create(ctx, remote.ModelStorage, remote.Values{
		"name": m.opts.StorageName,
		"type": storageTypeFilestore,
		"path": m.opts.FilestorePath,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to create the filestore storage")
	}

	zerolog.Ctx(ctx).Info().Int64("storage", id).Str("path", m.opts.FilestorePath).Msg("filestore storage created")

	return id, nil
}

// duplicateNames reports whether two attachments share a name. The filestore
// storage stores files by name, so duplicates would overwrite each other.
func (m *LegacyMigrator) duplicateNames(ctx context.Context) (bool, error) {
	ids, err := m.gw.Search(ctx, remote.ModelAttachment, nil, remote.OrderByID)
	if err != nil {
		return false, errors.Wrap(err, "failed to search attachments")
	}

	if len(ids) == 0 {
		return false, nil
	}

	recs, err := m.gw.Read(ctx, remote.ModelAttachment, ids, []string{"name"})
	if err != nil {
		return false, errors.Wrap(err, "failed to read attachment names")
	}

	names := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		names[rec.String("name")] = struct{}{}
	}

	return len(names) != len(ids), nil
}

// moveOne reads the payload through the database storage and writes it back
// through the filestore storage.
func (m *LegacyMigrator) moveOne(ctx context.Context, id, dbStorage, fsStorage int64, rename bool) error {
	recs, err := m.gw.Read(ctx, remote.ModelAttachment, []int64{id}, []string{"parent_id"})
	if err != nil {
		return errors.Wrap(err, "failed to read parent directory")
	}

	if len(recs) == 0 {
		return errors.Wrapf(remote.ErrUnexpectedReply, "attachment %d not returned", id)
	}

	directory, ok := recs[0].Many2One("parent_id")
	if !ok {
		return ErrNoParentDirectory
	}

	sw := &storageSwitch{gw: m.gw, directory: directory, read: dbStorage, write: fsStorage}

	var attachment remote.Record

	err = sw.borrow(ctx, func() error {
		recs, err := m.gw.Read(ctx, remote.ModelAttachment, []int64{id}, []string{"datas", "parent_id", "name"})
		if err != nil {
			return errors.Wrap(err, "failed to read payload")
		}

		if len(recs) == 0 {
			return errors.Wrapf(remote.ErrUnexpectedReply, "attachment %d not returned", id)
		}

		attachment = recs[0]

		return nil
	})
	if err != nil {
		return err
	}

	values := remote.Values{
		"datas":    attachment["datas"],
		"db_datas": false,
	}

	if name := attachment.String("name"); rename && !strings.HasPrefix(name, renamePrefix(id)) {
		values["name"] = renamePrefix(id) + name
	}

	ok, err = m.gw.Write(ctx, remote.ModelAttachment, []int64{id}, values)
	if err != nil {
		return errors.Wrap(err, "failed to write payload")
	}

	if !ok {
		return ErrWriteRejected
	}

	loc, err := locate(ctx, m.gw, id)
	if err != nil {
		return err
	}

	if loc != LocationExternal {
		return ErrStillInline
	}

	return nil
}

// locate derives the location of an attachment from its inline field.
func locate(ctx context.Context, gw remote.Gateway, id int64) (Location, error) {
	recs, err := gw.Read(ctx, remote.ModelAttachment, []int64{id}, []string{"db_datas"})
	if err != nil {
		return "", errors.Wrap(err, "failed to confirm the new location")
	}

	if len(recs) == 0 {
		return "", errors.Wrapf(remote.ErrUnexpectedReply, "attachment %d not returned", id)
	}

	return LocationOf(recs[0]), nil
}

// routeDirectories points the directories found on the database storage at the
// filestore so new uploads land there.
func (m *LegacyMigrator) routeDirectories(ctx context.Context, directories []int64, storage int64) error {
	if len(directories) == 0 {
		return nil
	}

	if _, err := m.gw.Write(ctx, remote.ModelDirectory, directories, remote.Values{"storage_id": storage}); err != nil {
		return errors.Wrap(err, "failed to route directories to the filestore storage")
	}

	zerolog.Ctx(ctx).Info().Int("directories", len(directories)).Msg("directories routed to the filestore storage")

	return nil
}

func renamePrefix(id int64) string {
	return fmt.Sprintf("attachment %d - ", id)
}

// recordItem logs the outcome of one attachment and adds it to the report.
func recordItem(ctx context.Context, report *Report, strategy version.Strategy, id int64, position, total int, err error) {
	item := ItemResult{ID: id, Position: position, Status: StatusOK, Err: err}

	logger := zerolog.Ctx(ctx)
	event := logger.Info()

	if err != nil {
		item.Status = StatusFail
		event = logger.Error().Err(err)
	}

	report.add(item)

	metrics.Attachments.WithLabelValues(string(strategy), string(item.Status)).Inc()
	metrics.Pending.Set(float64(total - position))

	event.Int64("id", id).Msgf("Moving attachment (id=%d) %d/%d (status: %s)", id, position, total, item.Status)
}
