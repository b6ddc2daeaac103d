package config

import (
	"errors"
)

var (
	// ErrDatabaseEmpty error if no Odoo database name was given.
	ErrDatabaseEmpty = errors.New("odoo database name can not be empty")

	// ErrInvalidConfig error if the validator rejects the config.
	ErrInvalidConfig = errors.New("invalid config")
)
