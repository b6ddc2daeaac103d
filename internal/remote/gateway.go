package remote

import (
	"context"
)

// Gateway is the set of Odoo operations the migration issues.
type Gateway interface {
	// Login authenticates and returns the uid used by all following calls.
	Login(ctx context.Context) (int64, error)
	// Search returns the ids matching domain, sorted by order ("" = server default).
	Search(ctx context.Context, model string, domain Domain, order string) ([]int64, error)
	// Read returns the requested fields of ids.
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	// Write updates ids with values and reports the server's result.
	Write(ctx context.Context, model string, ids []int64, values Values) (bool, error)
	// Create inserts a record and returns its id.
	Create(ctx context.Context, model string, values Values) (int64, error)
	// Call invokes a named model method.
	Call(ctx context.Context, model, method string, args ...any) (any, error)
}
