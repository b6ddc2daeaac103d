package config

import (
	"github.com/db2fs/db2fs/internal/logger"
)

const masked = "********"

// Config overall data structure.
type Config struct {
	Connection Connection
	Migration  Migration
	DB         DB
	Log        logger.Log
	Metrics    Metrics
}

// Connection holds the settings used to reach the Odoo XML-RPC endpoints.
type Connection struct {
	Database string `validate:"required"` // Odoo database to migrate
	User     string `validate:"required"` // Odoo login, must resolve to the admin uid

	Password    string // Odoo password
	AskPassword bool   // prompt for the password on the terminal

	Host     string `validate:"required"`         // Odoo server host
	Port     int    `validate:"min=1,max=65535"`  // Odoo server port
	Protocol string `validate:"oneof=http https"` // http or https
	Timeout  int    `validate:"min=0"`            // http timeout in seconds, 0 = no timeout
	AdminUID int64  `validate:"min=1"`            // uid the login has to resolve to
}

// Migration implements the migration switches.
type Migration struct {
	FilestorePath              string // filestore path, only used by 6.x servers
	InstallDocumentModule      bool   // install the 'document' module if missing (6.x)
	ManualAttachmentConversion bool   // convert attachments with direct SQL (6.x)

	Location    string `validate:"required"` // ir_attachment.location value (7.0+)
	BatchSize   int    `validate:"min=1"`    // rows per UPDATE batch of the manual conversion
	StorageName string `validate:"required"` // name of the document.storage created for the filestore
}

// Metrics implements the optional prometheus endpoint.
type Metrics struct {
	Listen string // address for the /metrics server, empty = disabled
}

// Masked returns a copy of the config with all secrets replaced.
func (c Config) Masked() Config {
	if c.Connection.Password != "" {
		c.Connection.Password = masked
	}

	if c.DB.Password != "" {
		c.DB.Password = masked
	}

	if c.DB.DSN != "" {
		c.DB.DSN = masked
	}

	return c
}
