package migrate

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/db2fs/db2fs/internal/remote"
)

// storageSwitch routes one document.directory between two storages.
// The directory is shared by every attachment beneath it, so it has to end up
// on the write storage whatever happens while it is borrowed.
type storageSwitch struct {
	gw        remote.Gateway
	directory int64
	read      int64
	write     int64
}

func (s *storageSwitch) route(ctx context.Context, storage int64) error {
	if _, err := s.gw.Write(ctx, remote.ModelDirectory, []int64{s.directory}, remote.Values{"storage_id": storage}); err != nil {
		return errors.Wrapf(err, "failed to route directory %d to storage %d", s.directory, storage)
	}

	return nil
}

// borrow routes the directory to the read storage, runs fn and routes it back
// to the write storage. The release is attempted even when acquire or fn fail
// and even when ctx is already cancelled.
func (s *storageSwitch) borrow(ctx context.Context, fn func() error) error {
	err := s.route(ctx, s.read)
	if err == nil {
		err = fn()
	}

	if rerr := s.route(context.WithoutCancel(ctx), s.write); rerr != nil {
		if err == nil {
			return rerr
		}

		zerolog.Ctx(ctx).Error().Err(rerr).Int64("directory", s.directory).Msg("directory left on the read storage")
	}

	return err
}
