package version

import (
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Strategy names a migration algorithm.
type Strategy string

const (
	// StrategyDocumentStorage moves attachments between document.storage backends (6.0, 6.1).
	StrategyDocumentStorage Strategy = "document-storage"
	// StrategyConfigParameter moves attachments by setting ir_attachment.location (7.0+).
	StrategyConfigParameter Strategy = "config-parameter"
)

var (
	legacyRange = mustConstraint(">= 6.0, < 7.0")
	modernRange = mustConstraint(">= 7.0")
)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}

	return constraint
}

// Select maps a major.minor label to its strategy.
func Select(label string) (Strategy, error) {
	v, err := semver.NewVersion(label)
	if err != nil {
		return "", errors.Wrapf(ErrUnsupportedVersion, "version %q: %v", label, err)
	}

	switch {
	case legacyRange.Check(v):
		return StrategyDocumentStorage, nil
	case modernRange.Check(v):
		return StrategyConfigParameter, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedVersion, "version %q", label)
	}
}
