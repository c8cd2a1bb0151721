package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"qrprint/internal/config"
	"qrprint/internal/logging"
	"qrprint/internal/station"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
		if c.loggerErr != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", c.loggerErr)
		}
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) loadPrinters() (*config.PrinterConfig, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	printers, err := config.LoadPrinters(cfg.Paths.PrinterConfig)
	if err != nil {
		return nil, fmt.Errorf("load printer config: %w", err)
	}
	return printers, nil
}

// withStation opens a station for the duration of fn. Commands that dispatch
// jobs pass start so the session lock is held and stale records are reset.
func (c *commandContext) withStation(cmd *cobra.Command, start bool, fn func(*station.Station) error, opts ...station.Option) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := station.Open(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(ctx); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if start {
		if err := st.Start(ctx); err != nil {
			return err
		}
	}
	return fn(st)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
