package migrate

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/version"
)

// LocationParameter is the config parameter selecting where 7.0+ servers store payloads.
const LocationParameter = "ir_attachment.location"

// ModernMigrator moves the attachments of a 7.0+ server by setting
// ir_attachment.location and rewriting every payload.
type ModernMigrator struct {
	gw   remote.Gateway
	opts Options
}

// NewModernMigrator creates the migrator.
func NewModernMigrator(gw remote.Gateway, opts Options) *ModernMigrator {
	return &ModernMigrator{gw: gw, opts: opts.withDefaults()}
}

// Run sets the location, rewrites every attachment and clears the inline
// payload of the ones that were rewritten.
func (m *ModernMigrator) Run(ctx context.Context, report *Report) error {
	logger := zerolog.Ctx(ctx)

	if err := m.setLocation(ctx); err != nil {
		return err
	}

	// every attachment is rewritten, an already external one is read from and written to the filestore
	ids, err := m.gw.Search(ctx, remote.ModelAttachment, nil, remote.OrderByID)
	if err != nil {
		return errors.Wrap(err, "failed to search attachments")
	}

	report.Total = len(ids)

	logger.Info().Int("attachments", len(ids)).Str("location", m.opts.Location).Msg("Begin moving attachments")

	survivors := make([]int64, 0, len(ids))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "migration interrupted")
		}

		err := m.rewrite(ctx, id)
		if err == nil {
			survivors = append(survivors, id)
		}

		recordItem(ctx, report, version.StrategyConfigParameter, id, i+1, len(ids), err)
	}

	if len(survivors) == 0 {
		return nil
	}

	logger.Info().Int("attachments", len(survivors)).Msg("Deleting attachments from database")

	if _, err := m.gw.Write(ctx, remote.ModelAttachment, survivors, remote.Values{"db_datas": false}); err != nil {
		return errors.Wrap(err, "failed to delete attachments from database")
	}

	return nil
}

// setLocation creates or overwrites the location parameter.
func (m *ModernMigrator) setLocation(ctx context.Context) error {
	values := remote.Values{"key": LocationParameter, "value": m.opts.Location}

	ids, err := m.gw.Search(ctx, remote.ModelConfigParam, remote.Where("key", "=", LocationParameter), remote.OrderByID)
	if err != nil {
		return errors.Wrap(err, "failed to search the location parameter")
	}

	if len(ids) == 0 {
		if _, err := m.gw.Create(ctx, remote.ModelConfigParam, values); err != nil {
			return errors.Wrap(err, "failed to create the location parameter")
		}

		return nil
	}

	if _, err := m.gw.Write(ctx, remote.ModelConfigParam, ids, values); err != nil {
		return errors.Wrap(err, "failed to update the location parameter")
	}

	return nil
}

func (m *ModernMigrator) rewrite(ctx context.Context, id int64) error {
	recs, err := m.gw.Read(ctx, remote.ModelAttachment, []int64{id}, []string{"id", "name", "datas"})
	if err != nil {
		return errors.Wrap(err, "failed to read payload")
	}

	if len(recs) == 0 {
		return errors.Wrapf(remote.ErrUnexpectedReply, "attachment %d not returned", id)
	}

	ok, err := m.gw.Write(ctx, remote.ModelAttachment, []int64{id}, remote.Values{"datas": recs[0]["datas"]})
	if err != nil {
		return errors.Wrap(err, "failed to write payload")
	}

	if !ok {
		return ErrWriteRejected
	}

	return nil
}
