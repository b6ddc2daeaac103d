// Package app implements the main application commands.
package app

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/db2fs/db2fs/internal/config"
	"github.com/db2fs/db2fs/internal/migrate"
)

// Version is set at build time.
var Version = "0.2.0" //nolint:gochecknoglobals

const envPrefix = "DB2FS"

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := NewRootCmd().Execute()
	if err != nil {
		log.Error().Err(err).Msg("db2fs failed")
	}

	return migrate.ExitCode(err)
}

// NewRootCmd builds the command tree. Every flag can also be set with a
// DB2FS_ prefixed environment variable, e.g. DB2FS_ASK_PASSWORD.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "db2fs [flags] DBNAME",
		Short: "db2fs moves Odoo attachments from the database to the filestore",
		Long: `db2fs moves the attachments of an Odoo database out of the database.

Odoo 6.0 and 6.1 store attachments through the 'document' module, db2fs
creates a filestore document storage and moves every attachment into it.
Odoo 7.0 and later read ir_attachment.location, db2fs sets it and rewrites
every attachment so the server stores it on disk.

The run can be repeated, attachments already moved are left alone.`,
		Version:       Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, args)
			if err != nil {
				return err
			}

			return start(cmd.Context(), &cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "TOML configuration file")
	pf.StringP("user", "u", "admin", "Odoo user")
	pf.String("password", "admin", "Odoo password")
	pf.Bool("ask-password", false, "Ask for the Odoo password")
	pf.String("host", "localhost", "Odoo server host")
	pf.IntP("port", "p", 8069, "Odoo server port") //nolint:mnd
	pf.String("protocol", "http", "Odoo server protocol (http or https)")
	pf.Int("timeout", 0, "Odoo request timeout in seconds (0 = none)")
	pf.BoolP("quiet", "q", false, "Quiet output (only errors are reported)")
	rootCmd.MarkFlagsMutuallyExclusive("password", "ask-password")

	f := rootCmd.Flags()
	f.String("filestore-path", "", "Odoo server filestore path, only required for Odoo 6.0 and 6.1")
	f.Bool("install-document-module", false, "Install the 'document' module, only required for Odoo 6.0 and 6.1")
	f.Bool("manual-attachment-conversion", false, `Convert the attachments with direct SQL instead of the document
module's _attach_parent_id. Comment out the call to this method in
document/document_data.xml first. Uses less memory on huge databases,
attachments are unavailable meanwhile. Needs --dsn and
--install-document-module, only for Odoo 6.0`)
	f.String("dsn", "", "DSN of the Odoo database, e.g. \"dbname=prod port=5432 host=localhost\"")
	f.String("location", "file:filestore", "ir_attachment.location value for Odoo 7.0 and later")
	f.Int("batch-size", 1000, "Rows per UPDATE of the manual conversion") //nolint:mnd
	f.String("metrics-listen", "", "Serve prometheus metrics on this address while running, e.g. :9090")

	cobra.CheckErr(v.BindPFlags(pf))
	cobra.CheckErr(v.BindPFlags(f))

	rootCmd.AddCommand(newDetectCmd(v), newDumpConfigCmd(v))

	return rootCmd
}

// loadConfig layers defaults, the config file, DB2FS_CONFIG_JSON, environment
// variables and flags, in that order, and validates the result.
func loadConfig(v *viper.Viper, args []string) (config.Config, error) {
	cfg, err := readConfig(v)
	if err != nil {
		return cfg, err
	}

	if len(args) > 0 {
		cfg.Connection.Database = args[0]
	}

	if cfg.Connection.AskPassword {
		if cfg.Connection.Password, err = askPassword(); err != nil {
			return cfg, err
		}
	}

	if err := config.Validate(&cfg); err != nil {
		return cfg, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// readConfig is loadConfig without the database argument, the prompt and the validation.
func readConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.ReadConfig(v.GetString("config"))
	if err != nil {
		return cfg, err
	}

	applyOverrides(v, &cfg)

	return cfg, nil
}

// applyOverrides copies every flag or environment variable that was actually set.
func applyOverrides(v *viper.Viper, cfg *config.Config) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString("user", &cfg.Connection.User)
	setString("password", &cfg.Connection.Password)
	setBool("ask-password", &cfg.Connection.AskPassword)
	setString("host", &cfg.Connection.Host)
	setInt("port", &cfg.Connection.Port)
	setString("protocol", &cfg.Connection.Protocol)
	setInt("timeout", &cfg.Connection.Timeout)

	setString("filestore-path", &cfg.Migration.FilestorePath)
	setBool("install-document-module", &cfg.Migration.InstallDocumentModule)
	setBool("manual-attachment-conversion", &cfg.Migration.ManualAttachmentConversion)
	setString("dsn", &cfg.DB.DSN)
	setString("location", &cfg.Migration.Location)
	setInt("batch-size", &cfg.Migration.BatchSize)
	setString("metrics-listen", &cfg.Metrics.Listen)

	if v.GetBool("quiet") {
		cfg.Log.LogLevel = "error"
	}
}
