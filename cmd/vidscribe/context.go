package main

import (
	"strings"

	"github.com/kbukum/vidscribe/app"
	"github.com/kbukum/vidscribe/config"
	"github.com/kbukum/vidscribe/version"
)

// EnvPrefix scopes environment overrides, e.g. VIDSCRIBE_SERVER_PORT.
const EnvPrefix = "VIDSCRIBE"

type commandContext struct {
	configFlag  *string
	envFileFlag *string
}

func newCommandContext(configFlag, envFileFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, envFileFlag: envFileFlag}
}

// loadConfig reads the configuration. Defaults and validation are applied by
// bootstrap.NewApp.
func (c *commandContext) loadConfig() (*app.Config, error) {
	opts := []config.LoaderOption{config.WithEnvPrefix(EnvPrefix)}
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			opts = append(opts, config.WithConfigFile(path))
		}
	}
	if c.envFileFlag != nil {
		if path := strings.TrimSpace(*c.envFileFlag); path != "" {
			opts = append(opts, config.WithEnvFile(path))
		}
	}

	cfg := &app.Config{}
	if err := config.LoadConfig(app.ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = version.Version
	}
	return cfg, nil
}
