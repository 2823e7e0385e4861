package config

import (
	"os"

	"github.com/pseudomuto/migen/pkg/consts"
	"go.uber.org/fx"
)

// EnvConfigFile overrides the location of migen.yaml.
const EnvConfigFile = "MIGEN_CONFIG"

var Module = fx.Module("config", fx.Provide(
	// Returns nil when there is no config file so that commands that don't
	// need one (init, help, version) still work.
	func() (*Config, error) {
		path := os.Getenv(EnvConfigFile)
		if path == "" {
			path = consts.ConfigFile
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(path)
	},
))
