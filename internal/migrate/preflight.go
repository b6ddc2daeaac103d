package migrate

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/db2fs/db2fs/internal/remote"
)

const (
	documentModule  = "document"
	moduleInstalled = "installed"
)

// documentModuleState returns the state of the 'document' module, "" when unknown to the server.
func documentModuleState(ctx context.Context, gw remote.Gateway) (int64, string, error) {
	ids, err := gw.Search(ctx, remote.ModelModule, remote.Where("name", "=", documentModule), remote.OrderByID)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to search the document module")
	}

	if len(ids) == 0 {
		return 0, "", nil
	}

	recs, err := gw.Read(ctx, remote.ModelModule, ids[:1], []string{"state"})
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to read the document module")
	}

	if len(recs) == 0 {
		return ids[0], "", nil
	}

	return ids[0], recs[0].String("state"), nil
}

// checkFilestorePath verifies the path exists on this host. The Odoo server
// has to see the same path, which can't be checked from here.
func checkFilestorePath(path string) error {
	if path == "" {
		return ErrNoFilestorePath
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return errors.Wrapf(ErrFilestorePathNotFound, "%q", path)
	}

	return nil
}

// preflight runs every check of a 6.x migration before anything is written,
// then installs the document module and runs the manual conversion when asked to.
func (m *LegacyMigrator) preflight(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	moduleID, state, err := documentModuleState(ctx, m.gw)
	if err != nil {
		return err
	}

	if state != moduleInstalled && !m.opts.InstallDocumentModule {
		return errors.Wrap(ErrDocumentModuleNotInstalled, "use --install-document-module to install it")
	}

	if err := checkFilestorePath(m.opts.FilestorePath); err != nil {
		return err
	}

	if !m.opts.InstallDocumentModule {
		if m.opts.ManualAttachmentConversion {
			logger.Warn().Msg("manual attachment conversion only runs together with --install-document-module, skipped")
		}

		return nil
	}

	if state == moduleInstalled {
		logger.Info().Msg("'document' module already installed, skipping its installation")
	} else {
		if err := installDocumentModule(ctx, m.gw, moduleID); err != nil {
			return err
		}
	}

	if m.opts.ManualAttachmentConversion && m.bulk != nil {
		if err := m.bulk(ctx); err != nil {
			return errors.Wrap(err, "manual attachment conversion failed")
		}
	}

	return nil
}

func installDocumentModule(ctx context.Context, gw remote.Gateway, moduleID int64) error {
	logger := zerolog.Ctx(ctx)

	if moduleID == 0 {
		return errors.Wrap(ErrDocumentModuleNotInstalled, "the server does not know the module")
	}

	logger.Info().Msg("installing the 'document' module")

	if _, err := gw.Call(ctx, remote.ModelModule, "button_install", []int64{moduleID}); err != nil {
		return errors.Wrap(err, "failed to mark the document module for installation")
	}

	upgradeID, err := gw.Create(ctx, remote.ModelModuleUpgrade, remote.Values{})
	if err != nil {
		return errors.Wrap(err, "failed to create the module upgrade wizard")
	}

	if _, err := gw.Call(ctx, remote.ModelModuleUpgrade, "upgrade_module", []int64{upgradeID}, map[string]any{}); err != nil {
		return errors.Wrap(err, "failed to install the document module")
	}

	logger.Info().Msg("'document' module installed")

	return nil
}
