package main

import (
	"errors"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"linketron/internal/config"
	"linketron/internal/credentials"
)

type commandContext struct {
	envFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(envFlag *string) *commandContext {
	return &commandContext{envFlag: envFlag}
}

// ensureConfig loads the optional .env file once, then the environment.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.envFlag != nil {
			path = strings.TrimSpace(*c.envFlag)
		}
		if path != "" {
			if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.configErr = err
				return
			}
		}
		c.config, c.configErr = config.Parse()
	})
	return c.config, c.configErr
}

// withCredentials opens the configured credential store for one command.
func (c *commandContext) withCredentials(fn func(credentials.Repository) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	repo, err := credentials.Open(cfg)
	if err != nil {
		return err
	}
	if closer, ok := repo.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	return fn(repo)
}
