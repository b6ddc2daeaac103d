package version

import (
	"errors"
)

var (
	// ErrVersionNotFound is returned when no installed module reports a version.
	ErrVersionNotFound = errors.New("could not determine odoo version")

	// ErrUnsupportedVersion is returned for versions no strategy handles.
	ErrUnsupportedVersion = errors.New("moving attachments is not implemented for this odoo version")
)
