package migrate

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/db2fs/db2fs/internal/db/models"
	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/remote/remotetest"
)

// legacyServer is a 6.1 server with the document module, one directory on
// the database storage and the given inline attachments.
type legacyServer struct {
	*remotetest.Odoo
	dbStorage int64
	directory int64
}

func newLegacyServer(t *testing.T, names ...string) *legacyServer {
	t.Helper()

	odoo := remotetest.New(1, remotetest.RouteByDirectory)
	odoo.Modules = []*remotetest.Module{
		{Name: "base", State: "installed", Version: "6.1.1.0"},
		{Name: "document", State: "installed", Version: "6.1.1.1"},
		{Name: "sale", State: "uninstalled", Version: "7.0.1.0"},
	}

	s := &legacyServer{Odoo: odoo}
	s.dbStorage = odoo.AddStorage("Database", storageTypeDB, "")
	s.directory = odoo.AddDirectory(s.dbStorage)

	for i, name := range names {
		id := int64(i + 1)
		odoo.AddAttachment(id, name, fmt.Sprintf("payload-%d", id), s.directory)
	}

	return s
}

func newModernServer(names ...string) *remotetest.Odoo {
	odoo := remotetest.New(1, remotetest.RouteByConfig)
	odoo.Modules = []*remotetest.Module{
		{Name: "base", State: "installed", Version: "8.0.1.3"},
		{Name: "mail", State: "installed", Version: "8.0.2.1"},
		{Name: "legacy", State: "installed", Version: "7.0.5.0"},
	}

	for i, name := range names {
		id := int64(i + 1)
		odoo.AddAttachment(id, name, fmt.Sprintf("payload-%d", id), 0)
	}

	return odoo
}

// failWrite makes every write of the given attachment fail.
func failWrite(id int64) func(model, method string, ids []int64) error {
	return func(model, method string, ids []int64) error {
		if model == remote.ModelAttachment && method == "write" && len(ids) == 1 && ids[0] == id {
			return &remote.Fault{Model: model, Method: method, Code: 1, Message: "ValidationError"}
		}

		return nil
	}
}

type execCall struct {
	query string
	args  []any
}

// fakeSQL answers the queries of the manual conversion from fixed values.
type fakeSQL struct {
	attached int64
	roots    []models.ModelData
	detached int64
	unsized  []models.Attachment

	failOn string
	execs  []execCall
	closed bool
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (int64, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})

	if query == f.failOn {
		return 0, errors.New("deadlock detected")
	}

	switch query {
	case sqlConvertBatch:
		from, _ := args[1].(int64)
		to, _ := args[2].(int64)

		return to - from + 1, nil
	case sqlAttachRemaining:
		return 2, nil
	default:
		return 1, nil
	}
}

func (f *fakeSQL) Scan(_ context.Context, dest any, query string, _ ...any) error {
	switch query {
	case sqlCountAttached:
		*dest.(*int64) = f.attached
	case sqlRootDirectory:
		*dest.(*[]models.ModelData) = f.roots
	case sqlCountDetached:
		*dest.(*int64) = f.detached
	case sqlUnsized:
		*dest.(*[]models.Attachment) = f.unsized
	default:
		return errors.Errorf("unexpected query %q", query)
	}

	return nil
}

func (f *fakeSQL) Close() error {
	f.closed = true

	return nil
}

func (f *fakeSQL) queries() []string {
	out := make([]string, 0, len(f.execs))
	for _, e := range f.execs {
		out = append(out, e.query)
	}

	return out
}
