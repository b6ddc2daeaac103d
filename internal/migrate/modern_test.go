package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/remote/remotetest"
)

func TestModernMigrator(t *testing.T) {
	odoo := newModernServer("a", "b", "c")

	report := &Report{}
	require.NoError(t, NewModernMigrator(odoo, Options{}).Run(context.Background(), report))

	assert.Equal(t, "file:filestore", odoo.Params[remotetest.LocationKey])
	assert.Equal(t, 3, report.Migrated)

	for id, a := range odoo.Attachments {
		assert.Empty(t, a.Inline, "attachment %d still inline", id)
		assert.Equal(t, []string{"payload-1", "payload-2", "payload-3"}[id-1], a.External)
	}
}

func TestModernMigratorOverwritesLocation(t *testing.T) {
	odoo := newModernServer("a")
	odoo.Params[remotetest.LocationKey] = "db"

	require.NoError(t, NewModernMigrator(odoo, Options{Location: "file:///srv/filestore"}).Run(context.Background(), &Report{}))

	assert.Len(t, odoo.Params, 1)
	assert.Equal(t, "file:///srv/filestore", odoo.Params[remotetest.LocationKey])
	assert.Equal(t, "payload-1", odoo.Attachments[1].External)
}

func TestModernMigratorItemFailure(t *testing.T) {
	odoo := newModernServer("a", "b", "c")
	odoo.Fail = failWrite(2)

	report := &Report{}
	require.NoError(t, NewModernMigrator(odoo, Options{}).Run(context.Background(), report))

	assert.Equal(t, []int64{2}, report.FailedIDs())

	// excluded from the cleanup, the payload stays in the database
	assert.Equal(t, "payload-2", odoo.Attachments[2].Inline)
	assert.Empty(t, odoo.Attachments[2].External)
	assert.Empty(t, odoo.Attachments[3].Inline)

	odoo.Fail = nil

	report = &Report{}
	require.NoError(t, NewModernMigrator(odoo, Options{}).Run(context.Background(), report))

	assert.Equal(t, 3, report.Migrated)

	for _, a := range odoo.Attachments {
		assert.Empty(t, a.Inline)
		assert.NotEmpty(t, a.External)
	}
}

func TestModernMigratorIsIdempotent(t *testing.T) {
	odoo := newModernServer("a", "b")

	for range 2 {
		require.NoError(t, NewModernMigrator(odoo, Options{}).Run(context.Background(), &Report{}))
	}

	assert.Len(t, odoo.Params, 1)
	assert.Equal(t, "payload-1", odoo.Attachments[1].Payload())
	assert.Equal(t, "payload-2", odoo.Attachments[2].Payload())
	assert.Empty(t, odoo.Attachments[1].Inline)
}

func TestModernMigratorSkipsEmptyCleanup(t *testing.T) {
	odoo := newModernServer("a")
	odoo.Fail = failWrite(1)

	report := &Report{}
	require.NoError(t, NewModernMigrator(odoo, Options{}).Run(context.Background(), report))

	assert.Equal(t, 1, report.Failed)

	writes := 0
	for _, c := range odoo.Calls {
		if c == remote.ModelAttachment+".write" {
			writes++
		}
	}

	assert.Equal(t, 1, writes, "only the failed rewrite, no cleanup")
}
