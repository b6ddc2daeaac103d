// Package config handles input from *.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/db2fs/db2fs/internal/logger"
)

// EnvConfigJSON names the environment variable holding a JSON config override.
const EnvConfigJSON = "DB2FS_CONFIG_JSON"

// Default returns the built-in configuration.
// The values match the defaults of the command line flags.
func Default() Config {
	return Config{
		Connection: Connection{
			User:     "admin",
			Password: "admin",
			Host:     "localhost",
			Port:     8069, //nolint: mnd
			Protocol: "http",
			AdminUID: 1,
		},
		Migration: Migration{
			Location:    "file:filestore",
			BatchSize:   1000, //nolint: mnd
			StorageName: "File Storage",
		},
		DB: DB{
			Port:    5432, //nolint: mnd
			SSLMode: "disable",
		},
		Log: logger.Log{
			LogLevel:    "info",
			AppName:     "db2fs",
			ServiceName: "db2fs",
			Console: logger.Console{
				Enabled:          true,
				UseConsoleWriter: true,
			},
		},
	}
}

// ReadConfig from config file.
// An empty path skips the file and starts from Default().
// The result is not validated, call Validate once all overrides are applied.
func ReadConfig(path string) (Config, error) {
	var (
		c             = Default()
		JSONConfigEnv string
		err           error
	)

	if path != "" {
		if _, err = toml.DecodeFile(path, &c); err != nil {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, nil
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// Validate checks the settings needed before connecting to Odoo.
func Validate(c *Config) error {
	if c.Connection.Database == "" {
		return errors.Wrap(ErrDatabaseEmpty, ErrInvalidConfig.Error())
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	return nil
}
