package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/primes/pkg/primes/config"
	"github.com/jamesainslie/primes/pkg/primes/logging"
)

// bootstrap loads configuration and starts logging before any command runs.
// Neither step may change what a counting run prints or its exit status, so
// failures fall back to defaults with a warning on stderr.
func (a *app) bootstrap(_ *cobra.Command, _ []string) error {
	config.Configure(a.v, a.cfgFile)

	cfg, err := config.ReadInto(a.v)
	if err != nil {
		a.printWarning("%v; using defaults", err)
		cfg = defaultConfig()
	}
	a.cfg = cfg

	if err := config.EnsureDirs(); err != nil {
		a.printWarning("%v", err)
	}

	if err := initializeLogging(cfg, a.verbose()); err != nil {
		a.printWarning("logging disabled: %v", err)
		return nil
	}

	logger.Debug("configuration loaded", "file", a.v.ConfigFileUsed(), "output", cfg.Output)
	return nil
}

// defaultConfig mirrors config.SetDefaults for when the config cannot be read.
func defaultConfig() *config.Config {
	cfg := &config.Config{Output: config.DefaultOutput}
	cfg.History.Enabled = true
	cfg.History.Path = config.DefaultHistoryPath()
	cfg.History.RetentionDays = config.DefaultRetentionDays
	cfg.Logging.Level = config.DefaultLogLevel
	cfg.Logging.Rotation = config.RotationConfig{
		MaxSize:    config.DefaultLogMaxSize,
		MaxAge:     30,
		MaxBackups: 5,
		Daily:      true,
	}
	return cfg
}

// initializeLogging starts file logging, adding a stderr console at debug level when verbose.
func initializeLogging(cfg *config.Config, verbose bool) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Rotation = parseRotationConfig(cfg.Logging.Rotation)
	logCfg.Components = cfg.Logging.Components
	if cfg.Logging.Path != "" {
		logCfg.Path = cfg.Logging.Path
	}
	if verbose {
		logCfg.ConsoleLevel = "debug"
	}
	return logging.Init(logCfg)
}

// parseRotationConfig converts the config file's rotation settings.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	return logging.RotationConfig{
		MaxSize:    logging.ParseMaxSize(rc.MaxSize),
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}
