package migrate

import (
	"github.com/db2fs/db2fs/internal/config"
	"github.com/db2fs/db2fs/internal/db/dsn"
)

const defaultBatchSize = 1000

// Options are the migration switches taken from the configuration.
type Options struct {
	FilestorePath              string
	InstallDocumentModule      bool
	ManualAttachmentConversion bool
	DSN                        string
	Location                   string
	BatchSize                  int
	StorageName                string
	AdminUID                   int64
}

// OptionsFromConfig collects the options of a run.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FilestorePath:              cfg.Migration.FilestorePath,
		InstallDocumentModule:      cfg.Migration.InstallDocumentModule,
		ManualAttachmentConversion: cfg.Migration.ManualAttachmentConversion,
		DSN:                        dsn.Create(cfg),
		Location:                   cfg.Migration.Location,
		BatchSize:                  cfg.Migration.BatchSize,
		StorageName:                cfg.Migration.StorageName,
		AdminUID:                   cfg.Connection.AdminUID,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}

	if o.Location == "" {
		o.Location = "file:filestore"
	}

	if o.StorageName == "" {
		o.StorageName = "File Storage"
	}

	if o.AdminUID == 0 {
		o.AdminUID = 1
	}

	return o
}
