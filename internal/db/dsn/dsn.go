// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/db2fs/db2fs/internal/config"
)

// Create builds the libpq keyword/value DSN from the configuration.
// A literal DSN wins. Without a DSN and a database name the result is empty.
func Create(dbCfg *config.Config) string {
	if dbCfg.DB.DSN != "" {
		return dbCfg.DB.DSN
	}

	if dbCfg.DB.Name == "" {
		return ""
	}

	parts := []string{"dbname=" + quote(dbCfg.DB.Name)}

	if dbCfg.DB.Host != "" {
		parts = append(parts, "host="+quote(dbCfg.DB.Host))
	}

	if dbCfg.DB.Port != 0 {
		parts = append(parts, fmt.Sprintf("port=%d", dbCfg.DB.Port))
	}

	if dbCfg.DB.User != "" {
		parts = append(parts, "user="+quote(dbCfg.DB.User))
	}

	if dbCfg.DB.Password != "" {
		parts = append(parts, "password="+quote(dbCfg.DB.Password))
	}

	if dbCfg.DB.SSLMode != "" {
		parts = append(parts, "sslmode="+quote(dbCfg.DB.SSLMode))
	}

	if dbCfg.DB.Extras != "" {
		parts = append(parts, dbCfg.DB.Extras)
	}

	return strings.Join(parts, " ")
}

// quote escapes a libpq value when it contains spaces, quotes or backslashes.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}

	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)

	return "'" + r.Replace(v) + "'"
}
