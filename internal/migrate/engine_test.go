package migrate

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db2fs/db2fs/internal/config"
	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/remote/remotetest"
	"github.com/db2fs/db2fs/internal/version"
)

func TestEngineRunModern(t *testing.T) {
	odoo := newModernServer("a", "b")

	report, err := New(odoo, Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "8.0", report.Version)
	assert.Equal(t, version.StrategyConfigParameter, report.Strategy)
	assert.Equal(t, 2, report.Migrated)
	assert.False(t, report.Finished.Before(report.Started))
}

func TestEngineRunLegacy(t *testing.T) {
	s := newLegacyServer(t, "a", "b")

	report, err := New(s.Odoo, Options{FilestorePath: t.TempDir()}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "6.1", report.Version)
	assert.Equal(t, version.StrategyDocumentStorage, report.Strategy)
	assert.Equal(t, 2, report.Migrated)
	assert.Nil(t, report.Bulk)
}

func TestEngineRunLegacyWithManualConversion(t *testing.T) {
	s := newLegacyServer(t, "a")
	db := &fakeSQL{attached: 1}

	opener := func(dsn string) (SQLConn, error) {
		assert.Equal(t, "dbname=prod", dsn)

		return db, nil
	}

	opts := Options{
		FilestorePath:              t.TempDir(),
		InstallDocumentModule:      true,
		ManualAttachmentConversion: true,
		DSN:                        "dbname=prod",
	}

	report, err := New(s.Odoo, opts, WithSQLOpener(opener)).Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, report.Bulk)
	assert.True(t, report.Bulk.Skipped)
	assert.True(t, db.closed)
}

func TestEngineManualConversionFailure(t *testing.T) {
	s := newLegacyServer(t, "a")
	db := &fakeSQL{detached: 3}

	opts := Options{
		FilestorePath:              t.TempDir(),
		InstallDocumentModule:      true,
		ManualAttachmentConversion: true,
		DSN:                        "dbname=prod",
	}

	_, err := New(s.Odoo, opts, WithSQLOpener(func(string) (SQLConn, error) { return db, nil })).Run(context.Background())
	require.ErrorIs(t, err, ErrRootDirectoryNotFound)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Equal(t, "payload-1", s.Attachments[1].Inline)
}

func TestEngineGates(t *testing.T) {
	tests := []struct {
		name     string
		server   func(t *testing.T) *remotetest.Odoo
		opts     Options
		wantErr  error
		wantExit int
		noCalls  bool
	}{
		{
			name: "not the admin user",
			server: func(t *testing.T) *remotetest.Odoo {
				odoo := newModernServer("a")
				odoo.UID = 7

				return odoo
			},
			wantErr:  ErrNotAdminUser,
			wantExit: ExitNotAdminUser,
		},
		{
			name: "manual conversion without dsn",
			server: func(t *testing.T) *remotetest.Odoo {
				return newLegacyServer(t, "a").Odoo
			},
			opts:     Options{ManualAttachmentConversion: true, InstallDocumentModule: true},
			wantErr:  ErrNoDsn,
			wantExit: ExitNoDsn,
			noCalls:  true,
		},
		{
			name: "version not found",
			server: func(t *testing.T) *remotetest.Odoo {
				odoo := newModernServer("a")
				odoo.Modules = nil

				return odoo
			},
			wantErr:  version.ErrVersionNotFound,
			wantExit: ExitVersionNotFound,
		},
		{
			name: "unsupported version",
			server: func(t *testing.T) *remotetest.Odoo {
				odoo := newModernServer("a")
				odoo.Modules = []*remotetest.Module{{Name: "base", State: "installed", Version: "5.0.16"}}

				return odoo
			},
			wantErr:  version.ErrUnsupportedVersion,
			wantExit: ExitFailure,
		},
		{
			name: "legacy without filestore path",
			server: func(t *testing.T) *remotetest.Odoo {
				return newLegacyServer(t, "a").Odoo
			},
			wantErr:  ErrNoFilestorePath,
			wantExit: ExitNoFilestorePath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			odoo := tt.server(t)

			_, err := New(odoo, tt.opts).Run(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantExit, ExitCode(err))

			assert.Zero(t, odoo.Mutations)
			assert.Equal(t, "payload-1", odoo.Attachments[1].Inline)

			if tt.noCalls {
				assert.Empty(t, odoo.Calls)
			}
		})
	}
}

func TestEngineDetect(t *testing.T) {
	odoo := newModernServer()

	detection, err := New(odoo, Options{}).Detect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Detection{UID: 1, Version: "8.0", Strategy: version.StrategyConfigParameter}, detection)
	assert.Zero(t, odoo.Mutations)
}

func TestEngineLoginFailure(t *testing.T) {
	odoo := newModernServer()
	odoo.UID = 0

	_, err := New(odoo, Options{}).Run(context.Background())
	require.ErrorIs(t, err, remote.ErrLoginFailed)
	assert.Equal(t, ExitNotAdminUser, ExitCode(err))
	assert.Zero(t, odoo.Mutations)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{errors.Wrap(version.ErrVersionNotFound, "detect"), ExitVersionNotFound},
		{ErrNoFilestorePath, ExitNoFilestorePath},
		{errors.Wrap(ErrFilestorePathNotFound, "/srv"), ExitFilestorePathNotFound},
		{ErrStorageAlreadyExists, ExitStorageAlreadyExists},
		{ErrDocumentModuleNotInstalled, ExitDocumentModuleNotInstalled},
		{ErrAttachmentsAlreadyInFilestore, ExitAttachmentsAlreadyInFilestore},
		{errors.Wrap(ErrNotAdminUser, "uid 7"), ExitNotAdminUser},
		{ErrNoDsn, ExitNoDsn},
		{errors.Wrap(remote.ErrLoginFailed, "log in"), ExitNotAdminUser},
		{version.ErrUnsupportedVersion, ExitFailure},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Migration.FilestorePath = "/srv/filestore"
	cfg.Migration.ManualAttachmentConversion = true
	cfg.DB.Name = "prod"

	opts := OptionsFromConfig(&cfg)

	assert.Equal(t, "/srv/filestore", opts.FilestorePath)
	assert.True(t, opts.ManualAttachmentConversion)
	assert.Equal(t, "dbname=prod port=5432 sslmode=disable", opts.DSN)
	assert.Equal(t, "file:filestore", opts.Location)
	assert.Equal(t, 1000, opts.BatchSize)
	assert.Equal(t, int64(1), opts.AdminUID)
}

func TestLocationOf(t *testing.T) {
	assert.Equal(t, LocationInline, LocationOf(remote.Record{"db_datas": "aGVsbG8="}))
	assert.Equal(t, LocationExternal, LocationOf(remote.Record{"db_datas": false}))
	assert.Equal(t, LocationExternal, LocationOf(remote.Record{}))
}
