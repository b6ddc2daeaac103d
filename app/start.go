package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/db2fs/db2fs/internal/config"
	"github.com/db2fs/db2fs/internal/logger"
	"github.com/db2fs/db2fs/internal/metrics"
	"github.com/db2fs/db2fs/internal/migrate"
	"github.com/db2fs/db2fs/internal/remote"
)

// start runs a migration with a validated configuration.
func start(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(cfg.Log); err != nil {
		return errors.Wrap(err, "failed to init logger")
	}

	if cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Log)
		if err := srv.Start(); err != nil {
			return err //nolint:wrapcheck
		}

		defer func() {
			if err := srv.Shutdown(); err != nil {
				log.Warn().Err(err).Msg("metrics endpoint")
			}
		}()
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	// an interrupted run leaves every attachment either migrated or untouched
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := migrate.New(client, migrate.OptionsFromConfig(cfg)).Run(ctx)
	if err != nil {
		return err
	}

	if report.Failed > 0 {
		log.Warn().
			Int("failed", report.Failed).
			Interface("ids", report.FailedIDs()).
			Msg("some attachments were not moved, run db2fs again to retry them")
	}

	return nil
}

func newClient(cfg *config.Config) (*remote.Client, error) {
	client, err := remote.NewClient(remote.Options{
		Protocol: cfg.Connection.Protocol,
		Host:     cfg.Connection.Host,
		Port:     cfg.Connection.Port,
		Database: cfg.Connection.Database,
		User:     cfg.Connection.User,
		Password: cfg.Connection.Password,
		Timeout:  time.Duration(cfg.Connection.Timeout) * time.Second,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create odoo client")
	}

	return client, nil
}
