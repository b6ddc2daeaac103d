package app

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/db2fs/db2fs/internal/logger"
	"github.com/db2fs/db2fs/internal/migrate"
)

func newDetectCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "detect DBNAME",
		Short: "Print the Odoo version and the migration db2fs would use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, args)
			if err != nil {
				return err
			}

			if err := logger.Init(cfg.Log); err != nil {
				return errors.Wrap(err, "failed to init logger")
			}

			client, err := newClient(&cfg)
			if err != nil {
				return err
			}

			defer func() {
				_ = client.Close()
			}()

			detection, err := migrate.New(client, migrate.OptionsFromConfig(&cfg)).Detect(log.Logger.WithContext(cmd.Context()))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "version: %s\nstrategy: %s\n", detection.Version, detection.Strategy)

			return err //nolint:wrapcheck
		},
	}
}
