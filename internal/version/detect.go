package version

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/db2fs/db2fs/internal/remote"
)

// Detect returns the "major.minor" version most installed modules agree on.
// Modules report their own fine grained versions, so the platform version is
// the label with the most votes; ties go to the label seen first.
func Detect(ctx context.Context, gw remote.Gateway) (string, error) {
	ids, err := gw.Search(ctx, remote.ModelModule, remote.Where("state", "=", "installed"), remote.OrderByID)
	if err != nil {
		return "", errors.Wrap(err, "failed to search installed modules")
	}

	if len(ids) == 0 {
		return "", errors.Wrap(ErrVersionNotFound, "no installed module")
	}

	modules, err := gw.Read(ctx, remote.ModelModule, ids, []string{"latest_version"})
	if err != nil {
		return "", errors.Wrap(err, "failed to read module versions")
	}

	versions := make([]string, 0, len(modules))
	for _, m := range modules {
		versions = append(versions, m.String("latest_version"))
	}

	label := Consensus(versions)
	if label == "" {
		return "", errors.Wrap(ErrVersionNotFound, "no module reports a version")
	}

	zerolog.Ctx(ctx).Info().Str("version", label).Int("modules", len(modules)).Msg("odoo version detected")

	return label, nil
}

// Consensus reduces every version to major.minor and returns the most frequent label.
// Empty versions don't vote.
func Consensus(versions []string) string {
	var (
		counts = map[string]int{}
		order  []string
	)

	for _, v := range versions {
		label := MajorMinor(v)
		if label == "" {
			continue
		}

		if counts[label] == 0 {
			order = append(order, label)
		}

		counts[label]++
	}

	best := ""
	for _, label := range order {
		if counts[label] > counts[best] {
			best = label
		}
	}

	return best
}

// MajorMinor keeps the first two dot separated components of v.
func MajorMinor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}

	parts := strings.SplitN(v, ".", 3) //nolint:mnd

	return strings.Join(parts[:min(2, len(parts))], ".")
}
