package migrate

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/db2fs/db2fs/internal/db/models"
	"github.com/db2fs/db2fs/internal/db/sqlgw"
	"github.com/db2fs/db2fs/internal/metrics"
)

const progressSteps = 20

const (
	sqlCountAttached = `
		SELECT count(*)
		FROM ir_attachment
		WHERE parent_id IS NOT NULL`

	sqlRootDirectory = `
		SELECT res_id
		FROM ir_model_data
		WHERE
			model = 'document.directory' AND
			name = 'dir_root'`

	sqlCountDetached = `
		SELECT count(*)
		FROM ir_attachment
		WHERE parent_id IS NULL AND db_datas IS NOT NULL`

	sqlConvertBatch = `
		UPDATE ir_attachment
		SET
			parent_id = ?,
			db_datas = decode(encode(db_datas, 'escape'), 'base64')
		WHERE
			parent_id IS NULL AND
			id BETWEEN ? AND ?`

	sqlAttachRemaining = `
		UPDATE ir_attachment
		SET parent_id = ?
		WHERE parent_id IS NULL`

	sqlParentNotNull = `ALTER TABLE ir_attachment ALTER parent_id SET NOT NULL`

	sqlUnsized = `
		SELECT id, db_datas
		FROM ir_attachment
		WHERE
			file_size = 0 AND
			db_datas IS NOT NULL`

	sqlSetSize = `
		UPDATE ir_attachment
		SET file_size = ?
		WHERE id = ?`
)

// Batch is an inclusive id range rewritten by one UPDATE.
type Batch struct {
	From int64
	To   int64
}

// Batches splits [1, total] into ranges of size ids, the last one clamped to total.
func Batches(total, size int64) []Batch {
	if total <= 0 || size <= 0 {
		return nil
	}

	batches := make([]Batch, 0, (total+size-1)/size)
	for from := int64(1); from <= total; from += size {
		batches = append(batches, Batch{From: from, To: min(from+size-1, total)})
	}

	return batches
}

// BulkReport summarizes a manual conversion.
type BulkReport struct {
	Skipped   bool
	Root      int64
	Detached  int64
	Batches   []Batch
	Converted int64
	Attached  int64
	Resized   int
}

// BulkConverter attaches every orphan attachment to the root directory and
// converts its payload with direct SQL, replacing the document module's own
// conversion which loads every attachment into memory.
type BulkConverter struct {
	db        sqlgw.Gateway
	batchSize int64
}

// NewBulkConverter creates a converter. A batch size below 1 uses 1000.
func NewBulkConverter(db sqlgw.Gateway, batchSize int) *BulkConverter {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &BulkConverter{db: db, batchSize: int64(batchSize)}
}

// Run converts the attachments. It does nothing when any attachment already has a parent.
func (b *BulkConverter) Run(ctx context.Context) (*BulkReport, error) {
	logger := zerolog.Ctx(ctx)
	report := &BulkReport{}

	var attached int64
	if err := b.db.Scan(ctx, &attached, sqlCountAttached); err != nil {
		return nil, errors.Wrap(err, "failed to count attached attachments")
	}

	if attached > 0 {
		logger.Info().Int64("attached", attached).Msg("skipping the manual conversion: it seems it's already done")

		report.Skipped = true

		return report, nil
	}

	var roots []models.ModelData
	if err := b.db.Scan(ctx, &roots, sqlRootDirectory); err != nil {
		return nil, errors.Wrap(err, "failed to find the root directory")
	}

	if len(roots) == 0 {
		return nil, ErrRootDirectoryNotFound
	}

	report.Root = roots[0].ResID

	if err := b.db.Scan(ctx, &report.Detached, sqlCountDetached); err != nil {
		return nil, errors.Wrap(err, "failed to count detached attachments")
	}

	report.Batches = Batches(report.Detached, b.batchSize)

	for _, batch := range report.Batches {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "manual conversion interrupted")
		}

		n, err := b.db.Exec(ctx, sqlConvertBatch, report.Root, batch.From, batch.To)
		if err != nil {
			return report, errors.Wrapf(err, "failed to convert ids %d to %d", batch.From, batch.To)
		}

		report.Converted += n
		metrics.BulkRows.WithLabelValues("convert").Add(float64(n))
	}

	n, err := b.db.Exec(ctx, sqlAttachRemaining, report.Root)
	if err != nil {
		return report, errors.Wrap(err, "failed to attach the remaining attachments")
	}

	report.Attached = n
	metrics.BulkRows.WithLabelValues("attach").Add(float64(n))

	if _, err := b.db.Exec(ctx, sqlParentNotNull); err != nil {
		return report, errors.Wrap(err, "failed to make parent_id mandatory")
	}

	if err := b.backfillSizes(ctx, report); err != nil {
		return report, err
	}

	logger.Info().
		Int64("converted", report.Converted).
		Int64("attached", report.Attached).
		Int("resized", report.Resized).
		Msg("manual conversion done")

	return report, nil
}

// backfillSizes sets file_size from the payload length where it is still 0.
func (b *BulkConverter) backfillSizes(ctx context.Context, report *BulkReport) error {
	logger := zerolog.Ctx(ctx)

	var rows []models.Attachment
	if err := b.db.Scan(ctx, &rows, sqlUnsized); err != nil {
		return errors.Wrap(err, "failed to read unsized attachments")
	}

	total := len(rows)
	printAt := max(total/progressSteps, 1)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "size backfill interrupted")
		}

		if _, err := b.db.Exec(ctx, sqlSetSize, len(row.DBDatas), row.ID); err != nil {
			return errors.Wrapf(err, "failed to set the size of attachment %d", row.ID)
		}

		report.Resized++
		metrics.BulkRows.WithLabelValues("size").Inc()

		if c := i + 1; c%printAt == 0 {
			logger.Info().
				Int("done", c).
				Int("total", total).
				Float64("percent", float64(c)/float64(total)*100). //nolint:mnd
				Msg("attachments converted")
		}
	}

	return nil
}
