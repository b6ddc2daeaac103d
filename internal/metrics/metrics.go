// Package metrics holds the prometheus collectors of a migration run and the
// optional HTTP endpoint exposing them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "db2fs"

var (
	// Attachments counts processed attachments by strategy and status.
	Attachments = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_total",
			Help:      "Number of attachments processed, by strategy and status.",
		},
		[]string{"strategy", "status"},
	)

	// Pending is the number of attachments left in the running loop.
	Pending = promauto.NewGauge( //nolint:gochecknoglobals
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attachments_pending",
			Help:      "Attachments not yet processed by the running migration loop.",
		},
	)

	// SQLStatements counts statements sent through the direct database connection.
	SQLStatements = promauto.NewCounter( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sql_statements_total",
			Help:      "Number of SQL statements executed by the manual conversion.",
		},
	)

	// BulkRows counts rows rewritten by the manual conversion.
	BulkRows = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_rows_total",
			Help:      "Rows rewritten by the manual conversion, by step.",
		},
		[]string{"step"},
	)
)
